// Package observability 提供可观测性相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，基于 log/slog 扩展，支持轮转与动态级别
//   - xalert: 接管事件报告、HTML 渲染、webhook 告警投递与事件历史
//
// 设计原则：
//   - 遵循 OpenTelemetry 语义规范
//   - 告警链路自带重试与熔断，投递失败只降级为日志
//   - 支持动态级别控制
package observability
