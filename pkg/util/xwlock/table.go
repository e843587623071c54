package xwlock

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// holderState 一个 key 的持有状态。仅在分片互斥量保护下读写。
//
// 不变式：条目存在 ⇔ 恰有一个持有者且 count >= 1；条目不存在 ⇔ 空闲。
type holderState struct {
	// holder 持有方 goroutine 编号。
	holder uint64

	// acquiredAt 本持有时段首次获取的时间。重入不更新。
	acquiredAt time.Time

	// count 重入计数。
	count int

	// warned 本持有时段是否已发出过慢持有告警。
	warned bool
}

// episode 标识一个持有时段：(holder, acquiredAt) 二元组。
// 同一 goroutine 释放后重新获取属于新的时段。
type episode struct {
	holder     uint64
	acquiredAt time.Time
}

func (st *holderState) episode() episode {
	return episode{holder: st.holder, acquiredAt: st.acquiredAt}
}

// shard 锁表分片。gen 是广播信道：释放时 close 并替换，
// 所有等待者借此醒来重新观察（条件变量的 channel 形式，可与
// ctx.Done 一起 select）。
type shard struct {
	mu      sync.Mutex
	entries map[string]*holderState
	gen     chan struct{}
}

// broadcastLocked 唤醒本分片的全部等待者。调用方必须持有 s.mu。
func (s *shard) broadcastLocked() {
	close(s.gen)
	s.gen = make(chan struct{})
}

// table 分片锁表。
type table struct {
	shards []shard
	mask   uint64
}

func newTable(shardCount int) *table {
	shards := make([]shard, shardCount)
	for i := range shards {
		shards[i].entries = make(map[string]*holderState)
		shards[i].gen = make(chan struct{})
	}
	return &table{shards: shards, mask: uint64(shardCount - 1)}
}

func (t *table) shardFor(key string) *shard {
	h := xxhash.Sum64String(key)
	return &t.shards[h&t.mask]
}

// HolderInfo 诊断用的持有状态快照。
type HolderInfo struct {
	Key        string
	Holder     uint64
	AcquiredAt time.Time
	Count      int
	Warned     bool
}

// snapshot 返回全表持有状态。跨分片非原子，仅用于诊断。
func (t *table) snapshot() []HolderInfo {
	var out []HolderInfo
	for i := range t.shards {
		s := &t.shards[i]
		s.mu.Lock()
		for key, st := range s.entries {
			out = append(out, HolderInfo{
				Key:        key,
				Holder:     st.holder,
				AcquiredAt: st.acquiredAt,
				Count:      st.count,
				Warned:     st.warned,
			})
		}
		s.mu.Unlock()
	}
	return out
}
