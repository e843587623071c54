// Package deploy 提供部署角色的共享定义。
//
// 此包定义了 Role 类型及其方法，供 xwlock（RoleProvider 默认实现）
// 和 cmd 工具共享使用，避免重复的类型定义。
//
// 角色语义：
//   - Primary: 主节点，允许发起数据库写操作
//   - Secondary: 从节点/只读副本，不应发起写操作（写锁请求会被告警）
//   - 未知角色按 Unknown 处理，不阻断任何操作
package deploy
