package deploy

import (
	"errors"
	"fmt"
	"strings"
)

// EnvName 环境变量名（单一事实来源）
//
// xwlock 的默认角色提供者读取此变量，变量名变更时只需修改一处。
const EnvName = "DEPLOYMENT_ROLE"

// Role 表示进程的部署角色
//
// 用于区分主节点（PRIMARY）和从节点/只读副本（SECONDARY）。
// 通常从环境变量 DEPLOYMENT_ROLE 获取。
type Role string

const (
	// Primary 主节点，允许发起写操作
	Primary Role = "PRIMARY"

	// Secondary 从节点/只读副本
	Secondary Role = "SECONDARY"

	// Unknown 角色未知（环境变量缺失或非法时的降级值）
	//
	// 设计决策: Unknown 是导出常量而非零值魔法字符串，
	// 因为角色守卫需要显式区分"明确是从节点"和"无法判断"——
	// 只有前者触发告警。
	Unknown Role = "UNKNOWN"
)

// 错误定义
var (
	// ErrMissingValue 角色值缺失/为空
	ErrMissingValue = errors.New("deploy: missing deployment role value")

	// ErrInvalidRole 角色非法（不是 PRIMARY/SECONDARY）
	ErrInvalidRole = errors.New("deploy: invalid deployment role")
)

// String 返回角色的字符串表示
func (r Role) String() string {
	return string(r)
}

// IsPrimary 判断是否为主节点
func (r Role) IsPrimary() bool {
	return r == Primary
}

// IsSecondary 判断是否为从节点/只读副本
func (r Role) IsSecondary() bool {
	return r == Secondary
}

// IsValid 判断角色是否有效（为已知的可配置类型）
//
// Unknown 不算有效配置值：它是解析失败时的降级结果，不应出现在配置中。
func (r Role) IsValid() bool {
	return r == Primary || r == Secondary
}

// Parse 解析字符串为 Role
//
// 支持大小写不敏感匹配：
//   - "PRIMARY", "primary", "Primary" -> Primary
//   - "SECONDARY", "secondary" -> Secondary
//   - "SLAVE", "REPLICA" 作为 Secondary 的历史别名同样接受
func Parse(s string) (Role, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	switch normalized {
	case "PRIMARY", "MASTER":
		return Primary, nil
	case "SECONDARY", "SLAVE", "REPLICA":
		return Secondary, nil
	case "":
		return Unknown, ErrMissingValue
	default:
		return Unknown, fmt.Errorf("%w: %q (expected PRIMARY or SECONDARY)", ErrInvalidRole, s)
	}
}
