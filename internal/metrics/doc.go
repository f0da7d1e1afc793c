/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖扩展点目录与
HTTP 两个维度。

# 核心类型

  - Collector：HTTP 请求指标（总数、耗时、请求/响应体大小），
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - CatalogCollector：实现 prometheus.Collector，每次采集时读取
    扩展点目录快照，导出扩展点数量、每个扩展点的插件数以及
    被丢弃的注册数量。

所有指标都注册到调用方传入的 prometheus.Registerer，并按 namespace 隔离。
*/
package metrics
