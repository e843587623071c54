package xwlock

import (
	"context"
	"log/slog"

	"github.com/dave42/j5basic/pkg/debug/xstack"
)

// guardRole 在进入等待协议前检查部署角色。
//
// 备节点不应发起写操作：写入应只发生在主节点上。这里只报警不拦截，
// 角色信息可能滞后（主备切换窗口），误拦截比误放行代价更高。
// 无争用的快速路径不做此检查，避免每次获取都付出角色查询开销。
func (m *Manager) guardRole(ctx context.Context, key string, self, holder uint64) {
	role := m.roleFn()
	if !role.IsSecondary() {
		return
	}

	m.logger.Error(ctx, "write lock requested on a secondary deployment",
		slog.String("key", key),
		slog.String("role", role.String()),
		slog.Uint64("requester", self),
		slog.Uint64("holder", holder),
	)
	m.logger.Info(ctx, "secondary write requester stack",
		slog.String("key", key),
		slog.String("stack", xstack.CaptureCurrent()),
	)
}
