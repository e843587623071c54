package xalert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v5"
	"github.com/google/uuid"
	"github.com/sony/gobreaker/v2"
)

// Notifier 告警投递接口。
type Notifier interface {
	// Notify 投递一条接管告警。实现必须尊重 ctx 取消。
	Notify(ctx context.Context, report *Report, attachments ...Attachment) error
}

// NopNotifier 丢弃所有告警，用于未配置投递通道的场景。
type NopNotifier struct{}

var _ Notifier = (*NopNotifier)(nil)

// Notify 实现 Notifier 接口，总是成功。
func (NopNotifier) Notify(context.Context, *Report, ...Attachment) error { return nil }

// webhookPayload webhook 请求体。
type webhookPayload struct {
	MessageID   string       `json:"message_id"`
	Subject     string       `json:"subject"`
	Message     string       `json:"message"`
	Report      *Report      `json:"report"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// WebhookNotifier 通过 HTTP webhook 投递告警。
//
// 投递链路：重试（固定间隔）包裹熔断器包裹单次 POST。
// 熔断开启时快速失败并停止重试，返回 ErrUnavailable，
// 避免告警风暴期间反复冲击已经不可用的接收端。
type WebhookNotifier struct {
	endpoint string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker[struct{}]
	attempts uint
	delay    time.Duration
}

var _ Notifier = (*WebhookNotifier)(nil)

// WebhookOption webhook 投递配置选项。
type WebhookOption func(*WebhookNotifier)

// WithHTTPClient 自定义 HTTP 客户端。
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(n *WebhookNotifier) {
		if client != nil {
			n.client = client
		}
	}
}

// WithTimeout 设置单次投递超时，默认 10s。
func WithTimeout(d time.Duration) WebhookOption {
	return func(n *WebhookNotifier) {
		if d > 0 {
			n.client.Timeout = d
		}
	}
}

// WithRetryAttempts 设置投递尝试总次数，默认 3。
func WithRetryAttempts(attempts uint) WebhookOption {
	return func(n *WebhookNotifier) {
		if attempts > 0 {
			n.attempts = attempts
		}
	}
}

// WithRetryDelay 设置重试间隔，默认 500ms。
func WithRetryDelay(d time.Duration) WebhookOption {
	return func(n *WebhookNotifier) {
		if d > 0 {
			n.delay = d
		}
	}
}

// NewWebhookNotifier 创建 webhook 投递器。
func NewWebhookNotifier(endpoint string, opts ...WebhookOption) (*WebhookNotifier, error) {
	if endpoint == "" {
		return nil, ErrEmptyEndpoint
	}

	n := &WebhookNotifier{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		attempts: 3,
		delay:    500 * time.Millisecond,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}

	n.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        "xalert-webhook",
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return n, nil
}

// Notify 实现 Notifier 接口。
func (n *WebhookNotifier) Notify(ctx context.Context, report *Report, attachments ...Attachment) error {
	body, err := json.Marshal(webhookPayload{
		MessageID:   uuid.NewString(),
		Subject:     report.Subject(),
		Message:     report.Message(),
		Report:      report,
		Attachments: attachments,
	})
	if err != nil {
		return fmt.Errorf("xalert: marshal payload: %w", err)
	}

	err = retry.New(
		retry.Attempts(n.attempts),
		retry.Delay(n.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			// 熔断开启时无需继续重试
			return !errors.Is(err, ErrUnavailable)
		}),
	).Do(func() error {
		_, err := n.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, n.post(ctx, body)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		return err
	})
	if err != nil {
		if errors.Is(err, ErrUnavailable) || errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %w", ErrDeliveryFailed, err)
	}
	return nil
}

func (n *WebhookNotifier) post(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("xalert: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("xalert: post webhook: %w", err)
	}
	defer func() {
		// 排空响应体以便连接复用
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("xalert: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
