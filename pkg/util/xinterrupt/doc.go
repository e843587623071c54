// Package xinterrupt 提供按 goroutine 编号投递取消信号的注册表。
//
// Go 无法向任意 goroutine 注入异常，协作式取消是唯一可行的打断手段。
// 参与方先通过 Register 把自己的 context 登记到注册表，其他方即可凭
// goroutine 编号调用 Interrupt 取消它。被打断方可通过 TakePending
// 查询并清除自己名下的未决打断，用于"操作尚未完成就被打断"的补偿逻辑。
//
// # 用法
//
//	ctx, id, unregister := xinterrupt.Register(ctx)
//	defer unregister()
//	// ... 在 ctx 上执行可被打断的工作 ...
//
//	// 另一个 goroutine：
//	_ = xinterrupt.Interrupt(id, errors.New("holder exceeded wait budget"))
package xinterrupt
