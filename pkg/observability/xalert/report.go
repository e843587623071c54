package xalert

import (
	"fmt"
	"strings"
	"time"

	"github.com/dave42/j5basic/pkg/util/xid"
)

// Report 一次强制接管的诊断快照。
//
// 在接管发生的瞬间收集，之后只读。所有字段都可 JSON 序列化，
// 便于 webhook 投递与事件历史归档。
type Report struct {
	// IncidentID 事件标识（base36），用于日志、告警与历史记录间的关联。
	IncidentID string `json:"incident_id"`

	// Key 被接管的资源键。
	Key string `json:"key"`

	// BlockedBy 被接管的持有方 goroutine 编号。
	BlockedBy uint64 `json:"blocked_by"`

	// Requester 发起接管的等待方 goroutine 编号。
	Requester uint64 `json:"requester"`

	// HeldFor 接管发生时持有方已持有的时长。
	HeldFor time.Duration `json:"held_for"`

	// MaxWait 等待方允许阻塞的上限。
	MaxWait time.Duration `json:"max_wait"`

	// HolderStack 持有方在接管瞬间的调用栈；抓取失败时为空。
	HolderStack string `json:"holder_stack,omitempty"`

	// CaptureError 堆栈抓取失败的原因。
	CaptureError string `json:"capture_error,omitempty"`

	// InterruptDelivered 取消信号是否成功投递给持有方。
	InterruptDelivered bool `json:"interrupt_delivered"`

	// InterruptError 取消信号投递失败的原因。
	InterruptError string `json:"interrupt_error,omitempty"`

	// OccurredAt 接管发生时间。
	OccurredAt time.Time `json:"occurred_at"`
}

// NewIncidentID 生成新的事件标识。
// ID 生成失败时回退为纳秒时间戳，保证诊断路径永不因此中断。
func NewIncidentID() string {
	if id, err := xid.NewString(); err == nil {
		return id
	}
	return fmt.Sprintf("t%d", time.Now().UnixNano())
}

// KeyLabel 返回用于展示的资源键文本。
func (r *Report) KeyLabel() string {
	if r.Key == "" {
		return "<whole database>"
	}
	return r.Key
}

// Subject 返回告警标题。
func (r *Report) Subject() string {
	return fmt.Sprintf("write lock takeover [%s]: key %s seized from goroutine %d",
		r.IncidentID, r.KeyLabel(), r.BlockedBy)
}

// Message 返回面向运维的纯文本描述，包含接管全过程的关键事实。
func (r *Report) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write lock on %s was forcibly taken over.\n\n", r.KeyLabel())
	fmt.Fprintf(&b, "Incident:  %s\n", r.IncidentID)
	fmt.Fprintf(&b, "Holder:    goroutine %d (held for %s)\n", r.BlockedBy, r.HeldFor.Round(time.Millisecond))
	fmt.Fprintf(&b, "Requester: goroutine %d (max wait %s)\n", r.Requester, r.MaxWait)
	fmt.Fprintf(&b, "Time:      %s\n", r.OccurredAt.Format(time.RFC3339))

	if r.InterruptDelivered {
		b.WriteString("\nA cancellation signal was delivered to the previous holder.\n")
	} else {
		fmt.Fprintf(&b, "\nCancellation could not be delivered: %s\n", r.InterruptError)
	}

	switch {
	case r.HolderStack != "":
		fmt.Fprintf(&b, "\nHolder stack at takeover:\n%s\n", r.HolderStack)
	case r.CaptureError != "":
		fmt.Fprintf(&b, "\nHolder stack unavailable: %s\n", r.CaptureError)
	}
	return b.String()
}
