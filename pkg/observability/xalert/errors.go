package xalert

import "errors"

var (
	// ErrUnavailable 告警通道当前不可用（熔断开启或配置缺失）。
	ErrUnavailable = errors.New("xalert: notifier unavailable")

	// ErrDeliveryFailed 告警投递在重试后仍然失败。
	ErrDeliveryFailed = errors.New("xalert: delivery failed")

	// ErrEmptyEndpoint webhook 地址为空。
	ErrEmptyEndpoint = errors.New("xalert: empty webhook endpoint")
)
