// Package xwlock 提供进程内独占写访问协调器。
//
// 每个 key 代表一个共享资源（DefaultKey 代表整库），同一时刻至多
// 一个 goroutine 持有写权。持有者可重入获取（计数递增），其他
// goroutine 的获取进入有界等待协议：
//
//  1. 等待期间周期性醒来重新观察持有方；
//  2. 同一持有时段内等待超过告警阈值时，记录一次含持有方调用栈的
//     告警日志（每时段至多一次）；
//  3. 等待超过上限后强制接管：抓取持有方堆栈、经 xinterrupt 投递
//     协作式取消、生成诊断报告并整体改写持有权，最后向运维通道
//     投递告警。
//
// 接管是协作式的：旧持有方只有在监听自己通过 xinterrupt.Register
// 登记的 context 时才会停下来。未登记的持有方无法被打断，接管
// 仍会改写持有权，打断失败会记入报告与日志。
//
// 诊断与告警链路上的一切失败（堆栈抓取、取消投递、渲染、通知）
// 都只降级为日志，从不中断获取与接管本身。
//
// # 用法
//
//	m, err := xwlock.New()
//	if err != nil {
//		return err
//	}
//
//	// 持有方：登记自己以便被接管时收到取消信号
//	ctx, _, unregister := xinterrupt.Register(ctx)
//	defer unregister()
//
//	if err := m.Acquire(ctx, xwlock.DefaultKey); err != nil {
//		return err
//	}
//	defer func() { _ = m.Release(xwlock.DefaultKey) }()
//	// ... 在 ctx 上执行写操作，及时响应 ctx.Done() ...
package xwlock
