// Package config 提供 extpoint 命令行工具的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量（EXTPOINT_ 前缀）的顺序叠加，
// 覆盖 HTTP 服务、日志、Prometheus 指标和 OpenTelemetry 遥测。
// 扩展点目录本身没有任何配置项。
package config
