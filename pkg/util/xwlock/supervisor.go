package xwlock

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dave42/j5basic/pkg/debug/xstack"
)

// waitForKey 有界等待协议。
//
// 两个时间锚点：start 对齐等待上限（接管判定），checkStart 对齐
// 告警阈值。观察到持有时段变化（持有者或其获取时间不同）时重置
// 两个锚点——新时段获得完整的容忍预算。等待本身是有界的
// channel-wait：至多睡到下一个告警/接管检查点，释放广播或 ctx
// 取消会提前唤醒。
func (m *Manager) waitForKey(ctx context.Context, key string, self uint64, cfg acquireConfig) error {
	ctx, span := m.tracer.Start(ctx, "xwlock.wait", trace.WithAttributes(
		attribute.String("lock.key", key),
	))
	defer span.End()

	start := time.Now()
	checkStart := start
	var observed episode
	first := true

	s := m.table.shardFor(key)

	// Go 1.23+ 的 Reset 会清空未消费的触发，无需手工排空。
	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	s.mu.Lock()
	for {
		st, ok := s.entries[key]
		if !ok {
			// 空闲，就地认领
			s.entries[key] = &holderState{holder: self, acquiredAt: time.Now(), count: 1}
			s.mu.Unlock()
			m.finishWait(ctx, span, key, start, modeWait)
			return nil
		}

		ep := st.episode()
		switch {
		case first:
			observed = ep
			first = false
		case ep != observed:
			// 换了持有时段，新时段获得完整预算
			observed = ep
			start = time.Now()
			checkStart = start
		}

		now := time.Now()
		if now.Sub(start) >= cfg.maxWait {
			acquired := m.takeover(ctx, s, key, self, observed, cfg)
			if acquired {
				m.finishWait(ctx, span, key, start, modeTakeover)
				return nil
			}
			// 接管放弃：持有权已易主，重新观察（takeover 归还了 s.mu）
			continue
		}

		if now.Sub(checkStart) >= cfg.warnAfter {
			if !st.warned {
				st.warned = true
				heldFor := now.Sub(st.acquiredAt)
				holder := st.holder
				s.mu.Unlock()
				m.warnSlowHolder(ctx, key, holder, self, heldFor)
				s.mu.Lock()
			}
			checkStart = now
			continue
		}

		waitFor := min(cfg.warnAfter-now.Sub(checkStart), cfg.maxWait-now.Sub(start))
		if waitFor < time.Millisecond {
			waitFor = time.Millisecond
		}
		gen := s.gen
		s.mu.Unlock()

		timer.Reset(waitFor)
		select {
		case <-ctx.Done():
			span.RecordError(ctx.Err())
			return ctx.Err()
		case <-gen:
			// 有释放发生，回去重新观察
		case <-timer.C:
			// 到达检查点
		}
		s.mu.Lock()
	}
}

// finishWait 记录等待结束的指标与追踪属性。
func (m *Manager) finishWait(ctx context.Context, span trace.Span, key string, start time.Time, mode string) {
	waited := time.Since(start)
	span.SetAttributes(
		attribute.String("lock.mode", mode),
		attribute.Float64("lock.waited_seconds", waited.Seconds()),
	)
	m.metrics.recordAcquire(ctx, key, mode)
	m.metrics.recordWait(ctx, key, waited)
}

// warnSlowHolder 对慢持有者发出一次性告警，附持有方当前调用栈。
// 必须在不持有分片互斥量时调用：全量堆栈转储的代价不能落在锁内。
func (m *Manager) warnSlowHolder(ctx context.Context, key string, holder, waiter uint64, heldFor time.Duration) {
	m.metrics.recordWarning(ctx, key)

	attrs := []slog.Attr{
		slog.String("key", key),
		slog.Uint64("holder", holder),
		slog.Uint64("waiter", waiter),
		slog.Duration("held_for", heldFor),
	}
	if stack, err := xstack.Capture(holder); err != nil {
		attrs = append(attrs, slog.String("holder_stack_error", err.Error()))
	} else {
		attrs = append(attrs, slog.String("holder_stack", stack))
	}
	m.logger.Warn(ctx, "write lock held beyond warning threshold", attrs...)
}
