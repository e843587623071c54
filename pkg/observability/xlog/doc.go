// Package xlog 提供基于 log/slog 的结构化日志。
//
// # 特性
//
//   - 强制 context 传递，方法签名只接受 slog.Attr（类型安全，无隐式转换开销）
//   - 动态级别控制：Build 后可通过 SetLevel 运行时调整
//   - 文件轮转：SetRotation 基于 lumberjack
//   - Stack 方法输出当前 goroutine 的完整调用栈，用于问题诊断
//   - 全局默认实例：脚手架/小工具场景使用 Default()，服务端推荐依赖注入
//
// # 用法
//
//	logger, cleanup, err := xlog.New().
//		SetLevel(xlog.LevelDebug).
//		SetFormat("json").
//		Build()
//	if err != nil {
//		panic(err)
//	}
//	defer cleanup()
//	logger.Info(ctx, "lock acquired", slog.String("key", "db"))
package xlog
