package xlog

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// defaultLogger 全局默认日志实例
var defaultLogger atomic.Pointer[LoggerWithLevel]

func init() {
	ResetDefault()
}

// Default 返回全局默认 Logger
//
// 设计决策: 提供全局实例是为了脚手架和小工具场景；
// 服务端代码推荐显式依赖注入，便于测试和多实例隔离。
func Default() LoggerWithLevel {
	return *defaultLogger.Load()
}

// SetDefault 替换全局默认 Logger
//
// nil 入参被忽略，保证 Default() 永不返回 nil。
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	defaultLogger.Store(&l)
}

// ResetDefault 重置全局默认 Logger 为初始配置（stderr、Info、text）
func ResetDefault() {
	logger, _, err := New().Build()
	if err != nil {
		// 默认配置不可能构建失败；若失败说明包内部被破坏。
		panic("xlog: build default logger: " + err.Error())
	}
	SetDefault(logger)
}

// Debug 使用全局默认 Logger 记录 Debug 级别日志
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Debug(ctx, msg, attrs...)
}

// Info 使用全局默认 Logger 记录 Info 级别日志
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Info(ctx, msg, attrs...)
}

// Warn 使用全局默认 Logger 记录 Warn 级别日志
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Warn(ctx, msg, attrs...)
}

// Error 使用全局默认 Logger 记录 Error 级别日志
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Error(ctx, msg, attrs...)
}

// Stack 使用全局默认 Logger 记录带调用栈的错误日志
func Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	Default().Stack(ctx, msg, attrs...)
}

// With 基于全局默认 Logger 派生带属性的 Logger
func With(attrs ...slog.Attr) Logger {
	return Default().With(attrs...)
}
