// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xid: 分布式唯一 ID 生成，基于 Sonyflake，base36 短字符串
//   - xinterrupt: 按 goroutine 编号投递取消信号的注册表
//   - xwlock: 进程内独占写访问协调器（重入、有界等待、强制接管）
//
// 设计原则：
//   - 所有阻塞操作接受 context.Context
//   - 跨 goroutine 的打断只用协作式取消，不做任何运行时黑魔法
//   - 诊断路径的失败不反向影响业务调用链
package util
