/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动、
随 context 取消的阻塞运行与优雅关闭。

# 概述

本包通过 Manager 封装 net/http.Server，统一管理监听、服务、
关闭与错误传播流程。extpoint 的 serve 命令用它同时承载目录 API
与 Prometheus 指标两个端口，并交给 errgroup 统一等待。

# 核心类型

  - Manager：HTTP 服务器管理器，持有 http.Server、net.Listener
    与异步错误通道，提供 Start/Run/Shutdown 等生命周期方法。
  - Config：服务器配置，包含名称、监听地址、读写超时、空闲超时、
    最大请求头大小与优雅关闭超时。

# 主要能力

  - 非阻塞启动：Start 在后台 goroutine 中运行服务。
  - 阻塞运行：Run 启动服务并等待 context 取消或服务异常，随后优雅关闭。
  - 错误传播：Errors() 返回异步错误通道，供调用方监控服务异常。
  - 地址查询：Addr/ListenAddr 提供配置地址与实际监听地址。
  - 默认配置：DefaultConfig 提供超时与请求头上限的基线，调用方只覆盖
    名称与地址。
*/
package server
