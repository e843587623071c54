package xwlock

import (
	"fmt"
	"os"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/dave42/j5basic/internal/deploy"
	"github.com/dave42/j5basic/pkg/observability/xalert"
	"github.com/dave42/j5basic/pkg/observability/xlog"
	"github.com/dave42/j5basic/pkg/util/xinterrupt"
)

const (
	// DefaultKey 整库独占访问使用的公共 key。
	DefaultKey = "database"

	// DefaultMaxWait 等待上限默认值，超过后强制接管。
	DefaultMaxWait = 120 * time.Second

	// DefaultWarnAfter 告警阈值默认值。
	DefaultWarnAfter = 30 * time.Second

	defaultShardCount = 32
	maxShardCount     = 1 << 16
)

// AcquireOption 单次获取的可选配置。
type AcquireOption func(*acquireConfig)

type acquireConfig struct {
	maxWait   time.Duration
	warnAfter time.Duration
}

// WithMaxWait 设置本次获取的等待上限。d <= 0 时忽略。
func WithMaxWait(d time.Duration) AcquireOption {
	return func(c *acquireConfig) {
		if d > 0 {
			c.maxWait = d
		}
	}
}

// WithWarnAfter 设置本次获取的告警阈值，必须小于等待上限。d <= 0 时忽略。
func WithWarnAfter(d time.Duration) AcquireOption {
	return func(c *acquireConfig) {
		if d > 0 {
			c.warnAfter = d
		}
	}
}

// Option Manager 的可选配置。
type Option func(*managerOptions)

type managerOptions struct {
	shardCount     int
	logger         xlog.Logger
	roleFn         func() deploy.Role
	notifier       xalert.Notifier
	renderer       xalert.Renderer
	history        *xalert.History
	interrupts     *xinterrupt.Registry
	meterProvider  metric.MeterProvider
	tracerProvider trace.TracerProvider
}

// WithShardCount 设置锁表分片数，必须为 2 的正整数幂，上限 65536。默认 32。
func WithShardCount(n int) Option {
	return func(o *managerOptions) {
		o.shardCount = n
	}
}

// WithLogger 注入日志实例，默认使用 xlog.Default()。
func WithLogger(logger xlog.Logger) Option {
	return func(o *managerOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRoleProvider 注入部署角色查询函数。
// 默认从 DEPLOYMENT_ROLE 环境变量解析，解析失败按 Unknown 处理。
func WithRoleProvider(fn func() deploy.Role) Option {
	return func(o *managerOptions) {
		if fn != nil {
			o.roleFn = fn
		}
	}
}

// WithNotifier 注入接管告警投递器，默认丢弃告警（NopNotifier）。
func WithNotifier(n xalert.Notifier) Option {
	return func(o *managerOptions) {
		if n != nil {
			o.notifier = n
		}
	}
}

// WithRenderer 注入报告渲染器，默认 HTML 渲染。
func WithRenderer(r xalert.Renderer) Option {
	return func(o *managerOptions) {
		if r != nil {
			o.renderer = r
		}
	}
}

// WithHistory 注入接管事件历史，默认容量 128、不过期。
func WithHistory(h *xalert.History) Option {
	return func(o *managerOptions) {
		if h != nil {
			o.history = h
		}
	}
}

// WithInterruptRegistry 注入取消注册表，默认 xinterrupt.Default()。
// 测试中注入独立实例以互不干扰。
func WithInterruptRegistry(r *xinterrupt.Registry) Option {
	return func(o *managerOptions) {
		if r != nil {
			o.interrupts = r
		}
	}
}

// WithMeterProvider 注入指标提供者，默认 otel 全局提供者。
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *managerOptions) {
		if mp != nil {
			o.meterProvider = mp
		}
	}
}

// WithTracerProvider 注入追踪提供者，默认 otel 全局提供者。
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *managerOptions) {
		if tp != nil {
			o.tracerProvider = tp
		}
	}
}

func defaultManagerOptions() *managerOptions {
	return &managerOptions{
		shardCount: defaultShardCount,
		roleFn: func() deploy.Role {
			role, _ := deploy.Parse(os.Getenv(deploy.EnvName))
			return role
		},
	}
}

func (o *managerOptions) validate() error {
	sc := o.shardCount
	if sc <= 0 || sc > maxShardCount || sc&(sc-1) != 0 {
		return fmt.Errorf("%w: must be a positive power of 2 (max %d), got %d",
			ErrInvalidShardCount, maxShardCount, sc)
	}
	return nil
}
