// Package xalert 提供接管事件的报告生成、渲染与运维告警投递。
//
// # 组成
//
//   - Report: 一次强制接管的完整诊断快照（当事双方、等待时长、持有方堆栈）
//   - Renderer: 将 Report 渲染为可归档的附件，内置 HTML 渲染器
//   - Notifier: 告警投递接口，内置基于 webhook 的实现
//     （重试 + 熔断，投递失败不影响接管本身）
//   - History: 最近接管事件的内存环形记录，供诊断接口查询
//
// 投递链路上的一切失败都只降级为日志，诊断路径不反向阻塞业务。
package xalert
