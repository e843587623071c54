package xwlock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go/v5"
	"go.opentelemetry.io/otel/trace"

	"github.com/dave42/j5basic/internal/deploy"
	"github.com/dave42/j5basic/pkg/debug/xstack"
	"github.com/dave42/j5basic/pkg/observability/xalert"
	"github.com/dave42/j5basic/pkg/observability/xlog"
	"github.com/dave42/j5basic/pkg/util/xinterrupt"
)

// Manager 进程内独占写访问协调器。所有方法并发安全。
type Manager struct {
	table    *table
	defaults atomic.Pointer[acquireConfig]

	logger     xlog.Logger
	roleFn     func() deploy.Role
	notifier   xalert.Notifier
	renderer   xalert.Renderer
	history    *xalert.History
	interrupts *xinterrupt.Registry
	metrics    *managerMetrics
	tracer     trace.Tracer
}

// New 创建协调器。配置无效时返回错误。
func New(opts ...Option) (*Manager, error) {
	o := defaultManagerOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	// 依赖的兜底在构造期统一完成，运行路径无需判空。
	logger := o.logger
	if logger == nil {
		logger = xlog.Default()
	}
	notifier := o.notifier
	if notifier == nil {
		notifier = xalert.NopNotifier{}
	}
	renderer := o.renderer
	if renderer == nil {
		renderer = xalert.NewHTMLRenderer()
	}
	history := o.history
	if history == nil {
		history = xalert.NewHistory(128, 0)
	}
	interrupts := o.interrupts
	if interrupts == nil {
		interrupts = xinterrupt.Default()
	}

	metrics, err := newManagerMetrics(o.meterProvider)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		table:      newTable(o.shardCount),
		logger:     logger,
		roleFn:     o.roleFn,
		notifier:   notifier,
		renderer:   renderer,
		history:    history,
		interrupts: interrupts,
		metrics:    metrics,
		tracer:     newTracer(o.tracerProvider),
	}
	m.defaults.Store(&acquireConfig{maxWait: DefaultMaxWait, warnAfter: DefaultWarnAfter})
	return m, nil
}

// SetDefaults 原子更新默认等待参数，对后续 Acquire 生效。
// 用于配置热重载。
func (m *Manager) SetDefaults(maxWait, warnAfter time.Duration) error {
	if maxWait <= 0 || warnAfter <= 0 || warnAfter >= maxWait {
		return fmt.Errorf("%w: warn-after %v, max-wait %v", ErrInvalidTimeout, warnAfter, maxWait)
	}
	m.defaults.Store(&acquireConfig{maxWait: maxWait, warnAfter: warnAfter})
	return nil
}

// Defaults 返回当前默认等待参数。
func (m *Manager) Defaults() (maxWait, warnAfter time.Duration) {
	cfg := m.defaults.Load()
	return cfg.maxWait, cfg.warnAfter
}

// Acquire 获取 key 的独占写权。
//
// 空闲时立即成功；自己已持有时计数递增、从不阻塞；他人持有时进入
// 有界等待协议，最迟在等待上限后通过强制接管成功返回。
// ctx 取消时返回 ctx.Err()；传入不可取消的 ctx 可获得"必然成功"
// 的语义。nil ctx panic。
func (m *Manager) Acquire(ctx context.Context, key string, opts ...AcquireOption) error {
	if ctx == nil {
		panic("xwlock: nil Context")
	}
	if key == "" {
		return ErrInvalidKey
	}

	cfg := *m.defaults.Load()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.warnAfter >= cfg.maxWait {
		return fmt.Errorf("%w: warn-after %v, max-wait %v", ErrInvalidTimeout, cfg.warnAfter, cfg.maxWait)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	self := xstack.ID()
	s := m.table.shardFor(key)

	s.mu.Lock()
	st, ok := s.entries[key]
	if !ok {
		s.entries[key] = &holderState{holder: self, acquiredAt: time.Now(), count: 1}
		s.mu.Unlock()
		m.metrics.recordAcquire(ctx, key, modeFree)
		return nil
	}
	if st.holder == self {
		st.count++
		s.mu.Unlock()
		m.metrics.recordAcquire(ctx, key, modeReentrant)
		return nil
	}
	holder := st.holder
	s.mu.Unlock()

	m.guardRole(ctx, key, self, holder)
	return m.waitForKey(ctx, key, self, cfg)
}

// Release 释放一层持有。计数归零时移除条目并唤醒等待者。
//
// 调用方不是持有者时不改动锁表，返回 ErrNotHolder。
// 若释放过程中发现本 goroutine 收到未决打断，本次变更回滚并整体
// 重试，直到一次完整不被打断的释放完成。
func (m *Manager) Release(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	self := xstack.ID()

	return retry.New(
		retry.UntilSucceeded(),
		retry.Delay(time.Millisecond),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errInterruptedDuringRelease)
		}),
		retry.OnRetry(func(n uint, err error) {
			m.logger.Warn(context.Background(), "release interrupted, rolled back and retrying",
				slog.String("key", key),
				slog.Uint64("goroutine", self),
				slog.Uint64("attempt", uint64(n)+1),
				slog.Any("cause", err),
			)
		}),
	).Do(func() error {
		return m.releaseOnce(key, self)
	})
}

// releaseOnce 单次释放尝试。
//
// 先对持有状态做快照再递减；若递减后发现本 goroutine 名下有未决
// 打断，说明打断落在了释放中途，恢复快照并要求重试，保证计数
// 不会因打断而丢失或翻倍。
func (m *Manager) releaseOnce(key string, self uint64) error {
	s := m.table.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.entries[key]
	if !ok || st.holder != self {
		return ErrNotHolder
	}

	snap := *st
	st.count--
	removed := false
	if st.count <= 0 {
		delete(s.entries, key)
		removed = true
	}

	if cause := m.interrupts.TakePending(self); cause != nil {
		restored := snap
		s.entries[key] = &restored
		return fmt.Errorf("%w: %w", errInterruptedDuringRelease, cause)
	}

	if removed {
		s.broadcastLocked()
	}
	return nil
}

// Holders 返回当前全部持有状态的快照，仅用于诊断。
func (m *Manager) Holders() []HolderInfo {
	return m.table.snapshot()
}
