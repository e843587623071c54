package xwlock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dave42/j5basic/pkg/debug/xstack"
	"github.com/dave42/j5basic/pkg/observability/xalert"
)

// takeover 强制接管被判定超限的持有时段。
//
// 进入时调用方持有 s.mu；返回 true 时写权已归 self 且 s.mu 已释放，
// 返回 false（接管放弃）时 s.mu 重新被持有，调用方继续等待。
//
// 诊断动作（堆栈抓取、取消投递、渲染）都在互斥量之外执行，期间
// 持有权可能变化，重新加锁后按被判定的时段裁决：
//   - 时段未变 → 整体改写（新持有者、新时间、计数 1）；
//   - 条目已消失（持有方在诊断期间释放）→ 正常认领；
//   - 时段已更换（别的等待者抢先）→ 放弃本次接管，绝不从新持有者
//     手中夺权。
//
// 任何诊断失败都只记入报告与日志，不阻止接管。取消是协作式的：
// 改写持有权并不保证旧持有方停止工作。
func (m *Manager) takeover(ctx context.Context, s *shard, key string, self uint64, condemned episode, cfg acquireConfig) bool {
	s.mu.Unlock()

	report := &xalert.Report{
		IncidentID: xalert.NewIncidentID(),
		Key:        key,
		BlockedBy:  condemned.holder,
		Requester:  self,
		HeldFor:    time.Since(condemned.acquiredAt),
		MaxWait:    cfg.maxWait,
		OccurredAt: time.Now(),
	}

	// 步骤 1：抓取持有方堆栈（尽力而为）
	if stack, err := xstack.Capture(condemned.holder); err != nil {
		report.CaptureError = err.Error()
		m.logger.Warn(ctx, "holder stack capture failed during takeover",
			slog.String("incident", report.IncidentID),
			slog.Uint64("holder", condemned.holder),
			slog.Any("error", err),
		)
	} else {
		report.HolderStack = stack
	}

	// 步骤 2：向持有方投递协作式取消（尽力而为）
	cause := fmt.Errorf("%w: key %s, incident %s, held for %s",
		ErrWriteAccessSeized, key, report.IncidentID, report.HeldFor.Round(time.Millisecond))
	if err := m.interrupts.Interrupt(condemned.holder, cause); err != nil {
		report.InterruptError = err.Error()
		m.logger.Warn(ctx, "cancellation delivery failed during takeover",
			slog.String("incident", report.IncidentID),
			slog.Uint64("holder", condemned.holder),
			slog.Any("error", err),
		)
	} else {
		report.InterruptDelivered = true
	}

	// 步骤 3：渲染诊断附件（尽力而为）
	var attachments []xalert.Attachment
	if att, err := m.renderer.Render(report); err != nil {
		m.logger.Warn(ctx, "takeover report rendering failed",
			slog.String("incident", report.IncidentID),
			slog.Any("error", err),
		)
	} else {
		attachments = append(attachments, att)
	}

	// 步骤 5：重新加锁，对被判定的时段裁决
	s.mu.Lock()
	if st, ok := s.entries[key]; ok && st.episode() != condemned {
		current := st.holder
		s.mu.Unlock()
		m.logger.Info(ctx, "takeover abandoned: lock changed hands during diagnostics",
			slog.String("incident", report.IncidentID),
			slog.String("key", key),
			slog.Uint64("condemned_holder", condemned.holder),
			slog.Uint64("current_holder", current),
		)
		s.mu.Lock()
		return false
	}
	s.entries[key] = &holderState{holder: self, acquiredAt: time.Now(), count: 1}
	s.mu.Unlock()

	// 步骤 6：归档与告警投递（不受调用方 ctx 取消影响）
	m.metrics.recordTakeover(ctx, key)
	m.history.Add(report)
	m.logger.Error(ctx, "write lock forcibly seized",
		slog.String("incident", report.IncidentID),
		slog.String("key", key),
		slog.Uint64("previous_holder", condemned.holder),
		slog.Uint64("new_holder", self),
		slog.Duration("held_for", report.HeldFor),
		slog.Bool("interrupt_delivered", report.InterruptDelivered),
	)
	if err := m.notifier.Notify(context.WithoutCancel(ctx), report, attachments...); err != nil {
		m.logger.Warn(ctx, "takeover notification delivery failed",
			slog.String("incident", report.IncidentID),
			slog.Any("error", err),
		)
	}
	return true
}
