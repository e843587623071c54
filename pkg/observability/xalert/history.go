package xalert

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// History 最近接管事件的内存记录，按 IncidentID 索引。
//
// 容量固定，超出后淘汰最旧条目；可选 TTL 让陈旧事件自动过期。
// 所有方法并发安全。
type History struct {
	cache *expirable.LRU[string, *Report]
}

// NewHistory 创建事件历史。
//
// size <= 0 时使用 128；ttl 为 0 表示条目不过期、只按容量淘汰。
func NewHistory(size int, ttl time.Duration) *History {
	if size <= 0 {
		size = 128
	}
	return &History{
		cache: expirable.NewLRU[string, *Report](size, nil, ttl),
	}
}

// Add 记录一次接管事件。
func (h *History) Add(report *Report) {
	if report == nil || report.IncidentID == "" {
		return
	}
	h.cache.Add(report.IncidentID, report)
}

// Get 按事件标识查询。
func (h *History) Get(incidentID string) (*Report, bool) {
	return h.cache.Get(incidentID)
}

// Recent 返回当前保留的全部事件，从旧到新。
func (h *History) Recent() []*Report {
	return h.cache.Values()
}

// Len 返回当前保留的事件数。
func (h *History) Len() int {
	return h.cache.Len()
}
