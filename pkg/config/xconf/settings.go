package xconf

import (
	"fmt"
	"time"
)

// 写锁协调器的出厂默认值。
const (
	// DefaultMaxWait 等待者被允许阻塞的最长时间，超过即触发强制接管。
	DefaultMaxWait = 120 * time.Second

	// DefaultWarnAfter 首次告警前的等待时间。
	DefaultWarnAfter = 30 * time.Second

	// DefaultHistorySize 接管事件历史的默认容量。
	DefaultHistorySize = 128
)

// Settings 写锁协调器的类型化配置树。
type Settings struct {
	Lock  LockSettings  `koanf:"lock"`
	Log   LogSettings   `koanf:"log"`
	Alert AlertSettings `koanf:"alert"`
}

// LockSettings 锁等待行为配置。
type LockSettings struct {
	// MaxWait 等待上限，超过后强制接管持有者。
	MaxWait time.Duration `koanf:"max_wait"`

	// WarnAfter 首次告警前的等待时间，必须小于 MaxWait。
	WarnAfter time.Duration `koanf:"warn_after"`
}

// LogSettings 日志输出配置。
type LogSettings struct {
	Level     string `koanf:"level"`
	Format    string `koanf:"format"`
	File      string `koanf:"file"`
	AddSource bool   `koanf:"add_source"`
}

// AlertSettings 接管告警投递配置。
type AlertSettings struct {
	// WebhookURL 运维告警 webhook 地址，为空时不投递。
	WebhookURL string `koanf:"webhook_url"`

	// Timeout 单次投递超时。
	Timeout time.Duration `koanf:"timeout"`

	// HistorySize 最近接管事件的保留条数。
	HistorySize int `koanf:"history_size"`
}

// DefaultSettings 返回出厂默认配置。
func DefaultSettings() Settings {
	return Settings{
		Lock: LockSettings{
			MaxWait:   DefaultMaxWait,
			WarnAfter: DefaultWarnAfter,
		},
		Log: LogSettings{
			Level:  "info",
			Format: "text",
		},
		Alert: AlertSettings{
			Timeout:     10 * time.Second,
			HistorySize: DefaultHistorySize,
		},
	}
}

// Validate 校验配置的内部一致性。
func (s *Settings) Validate() error {
	if s.Lock.MaxWait <= 0 {
		return fmt.Errorf("%w: lock.max_wait must be positive, got %v", ErrInvalidSettings, s.Lock.MaxWait)
	}
	if s.Lock.WarnAfter <= 0 {
		return fmt.Errorf("%w: lock.warn_after must be positive, got %v", ErrInvalidSettings, s.Lock.WarnAfter)
	}
	if s.Lock.WarnAfter >= s.Lock.MaxWait {
		return fmt.Errorf("%w: lock.warn_after (%v) must be less than lock.max_wait (%v)",
			ErrInvalidSettings, s.Lock.WarnAfter, s.Lock.MaxWait)
	}
	if s.Alert.HistorySize < 0 {
		return fmt.Errorf("%w: alert.history_size must not be negative, got %d",
			ErrInvalidSettings, s.Alert.HistorySize)
	}
	if s.Alert.Timeout < 0 {
		return fmt.Errorf("%w: alert.timeout must not be negative, got %v",
			ErrInvalidSettings, s.Alert.Timeout)
	}
	return nil
}

// LoadSettings 在默认值之上反序列化配置并校验。
// 配置中缺省的字段保持出厂默认值。
func LoadSettings(cfg Config) (Settings, error) {
	settings := DefaultSettings()
	if err := cfg.Unmarshal("", &settings); err != nil {
		return Settings{}, err
	}
	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}
