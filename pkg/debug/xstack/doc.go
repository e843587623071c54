// Package xstack 提供 goroutine 标识与跨 goroutine 堆栈捕获。
//
// # 特性
//
//   - ID 返回当前 goroutine 的运行时编号
//   - Capture 按编号抓取指定 goroutine 的调用栈，用于诊断长时间持锁方
//   - CaptureCurrent 抓取当前 goroutine 的调用栈
//
// # 注意
//
// goroutine 编号是运行时内部概念，仅用于诊断输出与事件关联，
// 不应作为业务标识持久化。Capture 需要 STW 式的全量堆栈转储，
// 只应在告警、接管等低频诊断路径上调用。
package xstack
