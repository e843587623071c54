package xwlock

import "errors"

var (
	// ErrInvalidKey key 为空字符串。整库访问请使用 DefaultKey。
	ErrInvalidKey = errors.New("xwlock: invalid key")

	// ErrInvalidTimeout 告警阈值不小于等待上限。
	ErrInvalidTimeout = errors.New("xwlock: warn-after must be less than max-wait")

	// ErrNotHolder 调用方不是当前持有者。
	// 常见于持有权已被强制接管后旧持有方的 Release。
	ErrNotHolder = errors.New("xwlock: caller does not hold the lock")

	// ErrInvalidShardCount 分片数不是 2 的正整数幂。
	ErrInvalidShardCount = errors.New("xwlock: invalid shard count")

	// ErrWriteAccessSeized 写权因超过等待上限被强制接管。
	// 被接管方通过 context.Cause 观察到此错误（包装后）。
	ErrWriteAccessSeized = errors.New("xwlock: write access forcibly seized")
)

// errInterruptedDuringRelease 释放过程中发现本 goroutine 有未决打断。
// 释放会回滚本次变更并整体重试，此错误从不对外暴露。
var errInterruptedDuringRelease = errors.New("xwlock: interrupted during release")
