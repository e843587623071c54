package xid

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/sonyflake/v2"
)

var (
	// ErrOverTimeLimit 时间分量溢出，生成器无法继续生成 ID。不可恢复。
	ErrOverTimeLimit = errors.New("xid: time component overflow")

	// ErrClockBackwardTimeout 时钟回拨等待超时。
	ErrClockBackwardTimeout = errors.New("xid: clock backward wait timeout")

	// ErrInvalidID Parse 解析出非正值或非法格式。
	ErrInvalidID = errors.New("xid: invalid id")

	// ErrInvalidConfig 生成器配置无效。
	ErrInvalidConfig = errors.New("xid: invalid config")
)

const (
	// defaultMaxWait 时钟回拨时的最大等待时间。
	// sonyflake 时间精度为 10ms，回拨通常在几百毫秒内恢复。
	defaultMaxWait = 500 * time.Millisecond

	// defaultRetryInterval 重试间隔。
	defaultRetryInterval = 10 * time.Millisecond
)

// Generator 分布式唯一 ID 生成器，并发安全。
type Generator struct {
	sf            *sonyflake.Sonyflake
	maxWait       time.Duration
	retryInterval time.Duration

	// machineIDFn 仅在 NewGenerator 构建 sonyflake 实例时使用。
	machineIDFn func() (uint16, error)
}

// Option 生成器配置选项。
type Option func(*Generator)

// WithMachineIDFunc 自定义机器 ID 获取函数（0-65535）。
func WithMachineIDFunc(fn func() (uint16, error)) Option {
	return func(g *Generator) {
		if fn != nil {
			g.machineIDFn = fn
		}
	}
}

// WithMaxWait 设置时钟回拨时的最大等待时间。
func WithMaxWait(d time.Duration) Option {
	return func(g *Generator) {
		if d >= 0 {
			g.maxWait = d
		}
	}
}

// NewGenerator 创建独立的 ID 生成器实例。
// 不传 WithMachineIDFunc 时默认使用 DefaultMachineID。
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		maxWait:       defaultMaxWait,
		retryInterval: defaultRetryInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	machineIDFn := g.machineIDFn
	if machineIDFn == nil {
		machineIDFn = DefaultMachineID
	}

	sf, err := sonyflake.New(sonyflake.Settings{
		MachineID: func() (int, error) {
			id, err := machineIDFn()
			return int(id), err
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	g.sf = sf
	return g, nil
}

// New 生成新的唯一 ID（int64）。
// 时间分量溢出时返回 ErrOverTimeLimit。
func (g *Generator) New() (int64, error) {
	id, err := g.sf.NextID()
	if err != nil {
		if errors.Is(err, sonyflake.ErrOverTimeLimit) {
			return 0, fmt.Errorf("%w: %w", ErrOverTimeLimit, err)
		}
		return 0, err
	}
	return id, nil
}

// NewWithRetry 生成新的唯一 ID，遇到可重试错误时等待重试。
//
// ErrOverTimeLimit 不可恢复，立即返回；其余错误在 maxWait 内
// 按 retryInterval 重试，超时返回 ErrClockBackwardTimeout。
// 支持通过 ctx 取消等待。
func (g *Generator) NewWithRetry(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// 快速路径：首次成功无需创建 timer
	id, err := g.sf.NextID()
	if err == nil {
		return id, nil
	}
	if errors.Is(err, sonyflake.ErrOverTimeLimit) {
		return 0, fmt.Errorf("%w: %w", ErrOverTimeLimit, err)
	}

	deadline := time.Now().Add(g.maxWait)
	lastErr := err
	timer := time.NewTimer(0)
	<-timer.C
	defer timer.Stop()

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return 0, fmt.Errorf("%w: %w", ErrClockBackwardTimeout, lastErr)
		}

		timer.Reset(min(g.retryInterval, remaining))
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
		}

		id, err := g.sf.NextID()
		if err == nil {
			return id, nil
		}
		if errors.Is(err, sonyflake.ErrOverTimeLimit) {
			return 0, fmt.Errorf("%w: %w", ErrOverTimeLimit, err)
		}
		lastErr = err
	}
}

// NewString 生成新的唯一 ID（base36 字符串，12-13 字符）。
func (g *Generator) NewString() (string, error) {
	id, err := g.New()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 36), nil
}

// NewStringWithRetry 生成新的唯一 ID 字符串，遇到可重试错误时等待重试。
func (g *Generator) NewStringWithRetry(ctx context.Context) (string, error) {
	id, err := g.NewWithRetry(ctx)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 36), nil
}

// Parse 从 base36 字符串解析 ID。
func Parse(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 36, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrInvalidID, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: value must be positive, got %d", ErrInvalidID, id)
	}
	return id, nil
}

// 全局默认实例，首次使用时按默认配置惰性初始化。
var (
	defaultGen atomic.Pointer[Generator]
	initMu     sync.Mutex
)

func ensureInitialized() (*Generator, error) {
	if gen := defaultGen.Load(); gen != nil {
		return gen, nil
	}
	initMu.Lock()
	defer initMu.Unlock()
	if gen := defaultGen.Load(); gen != nil {
		return gen, nil
	}
	gen, err := NewGenerator()
	if err != nil {
		return nil, err
	}
	defaultGen.Store(gen)
	return gen, nil
}

// New 使用全局默认生成器生成唯一 ID。
func New() (int64, error) {
	gen, err := ensureInitialized()
	if err != nil {
		return 0, err
	}
	return gen.New()
}

// NewString 使用全局默认生成器生成 base36 唯一 ID 字符串。
func NewString() (string, error) {
	gen, err := ensureInitialized()
	if err != nil {
		return "", err
	}
	return gen.NewString()
}

// NewStringWithRetry 使用全局默认生成器生成唯一 ID 字符串，
// 遇到时钟回拨等可重试错误时自动等待重试。
func NewStringWithRetry(ctx context.Context) (string, error) {
	gen, err := ensureInitialized()
	if err != nil {
		return "", err
	}
	return gen.NewStringWithRetry(ctx)
}
