package xinterrupt

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dave42/j5basic/pkg/debug/xstack"
)

// ErrNotRegistered 目标 goroutine 未登记（或已注销）。
var ErrNotRegistered = errors.New("xinterrupt: goroutine not registered")

// Registry 按 goroutine 编号索引的取消注册表，并发安全。
type Registry struct {
	mu      sync.Mutex
	entries map[uint64]context.CancelCauseFunc
	pending map[uint64]error
}

// NewRegistry 创建独立的注册表实例，用于依赖注入与测试隔离。
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[uint64]context.CancelCauseFunc),
		pending: make(map[uint64]error),
	}
}

// Register 登记当前 goroutine，返回可被远程取消的派生 context、
// 当前 goroutine 编号与注销函数。
//
// 注销函数必须在工作结束后调用（通常 defer），否则登记项泄漏。
// 注销同时清除本 goroutine 名下尚未被取走的未决打断。
// 同一 goroutine 重复登记时 panic：这是调用方的编程错误。
func (r *Registry) Register(ctx context.Context) (context.Context, uint64, func()) {
	if ctx == nil {
		panic("xinterrupt: nil Context")
	}

	id := xstack.ID()
	derived, cancel := context.WithCancelCause(ctx)

	r.mu.Lock()
	if _, dup := r.entries[id]; dup {
		r.mu.Unlock()
		cancel(nil)
		panic(fmt.Sprintf("xinterrupt: goroutine %d already registered", id))
	}
	r.entries[id] = cancel
	r.mu.Unlock()

	unregister := func() {
		r.mu.Lock()
		delete(r.entries, id)
		delete(r.pending, id)
		r.mu.Unlock()
		// 释放派生 context 的资源；正常路径下无人关心此 cause。
		cancel(context.Canceled)
	}
	return derived, id, unregister
}

// Interrupt 取消编号为 id 的 goroutine 登记的 context，并把 cause
// 记入其未决打断。目标未登记时返回 ErrNotRegistered。
//
// 打断是尽力而为的协作信号：目标只有在监听自己登记的 context 时
// 才会察觉。cause 为 nil 时使用 context.Canceled。
func (r *Registry) Interrupt(id uint64, cause error) error {
	if cause == nil {
		cause = context.Canceled
	}

	r.mu.Lock()
	cancel, ok := r.entries[id]
	if ok {
		r.pending[id] = cause
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: goroutine %d", ErrNotRegistered, id)
	}
	cancel(cause)
	return nil
}

// TakePending 返回并清除编号为 id 的 goroutine 的未决打断。
// 没有未决打断时返回 nil。
func (r *Registry) TakePending(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cause, ok := r.pending[id]
	if !ok {
		return nil
	}
	delete(r.pending, id)
	return cause
}

// Registered 报告编号为 id 的 goroutine 当前是否在册。
func (r *Registry) Registered(id uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	return ok
}

// 全局默认注册表。
var defaultRegistry = NewRegistry()

// Default 返回全局默认注册表。
func Default() *Registry { return defaultRegistry }

// Register 在全局默认注册表上登记当前 goroutine。
func Register(ctx context.Context) (context.Context, uint64, func()) {
	return defaultRegistry.Register(ctx)
}

// Interrupt 在全局默认注册表上打断编号为 id 的 goroutine。
func Interrupt(id uint64, cause error) error {
	return defaultRegistry.Interrupt(id, cause)
}

// TakePending 在全局默认注册表上取走编号为 id 的未决打断。
func TakePending(id uint64) error {
	return defaultRegistry.TakePending(id)
}
