// Package xid 提供基于 Sonyflake 的分布式唯一 ID 生成。
//
// 主要用于事件与告警的关联标识：NewString 生成 base36 编码的短字符串，
// 适合嵌入日志、告警消息与事件历史中人工检索。
//
// # 用法
//
//	id, err := xid.NewString()
//	if err != nil {
//		return err
//	}
//	// 例如 "1n8b2k9q0r3"
//
// 机器 ID 默认按 XID_MACHINE_ID 环境变量 → 主机名哈希 → 私有 IP
// 低 16 位的顺序获取；多节点部署建议显式设置 XID_MACHINE_ID。
package xid
