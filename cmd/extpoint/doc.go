/*
Package main 提供 extpoint 命令行程序入口。

# 概述

cmd/extpoint 链接 plugins/ 下的示例插件包，在启动前由各插件包的
包级初始化完成自注册，随后提供目录查询与 HTTP 服务两类子命令。
程序支持 YAML 配置文件加载、结构化日志（zap）、Prometheus 指标
采集以及 OpenTelemetry 链路追踪。

# 核心类型

  - Server：主服务器，管理目录 API 与 Metrics 双端口及优雅关闭
  - Middleware：HTTP 中间件函数签名 func(http.Handler) http.Handler
  - responseWriter：包装 http.ResponseWriter 以捕获状态码

# 主要能力

  - 子命令：list（打印目录，table/json/yaml）、serve（启动服务）、version、help
  - 中间件链：Recovery、RequestID、SecurityHeaders、RequestLogger、
    OTelTracing、Metrics、RateLimiter（基于 IP）
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus），包含目录指标
  - 优雅关闭：信号取消 context → errgroup 等待两个服务器退出
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
