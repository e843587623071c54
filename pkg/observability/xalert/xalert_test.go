package xalert

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleReport() *Report {
	return &Report{
		IncidentID:         "t123abc",
		Key:                "orders",
		BlockedBy:          18,
		Requester:          42,
		HeldFor:            150 * time.Millisecond,
		MaxWait:            100 * time.Millisecond,
		HolderStack:        "goroutine 18 [chan receive]:\nmain.slowWriter()",
		InterruptDelivered: true,
		OccurredAt:         time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}
}

func TestReport_Subject(t *testing.T) {
	r := sampleReport()
	subject := r.Subject()
	assert.Contains(t, subject, "t123abc")
	assert.Contains(t, subject, "orders")
	assert.Contains(t, subject, "goroutine 18")
}

func TestReport_KeyLabel_WholeDatabase(t *testing.T) {
	r := sampleReport()
	r.Key = ""
	assert.Equal(t, "<whole database>", r.KeyLabel())
	assert.Contains(t, r.Subject(), "<whole database>")
}

func TestReport_Message(t *testing.T) {
	r := sampleReport()
	msg := r.Message()
	assert.Contains(t, msg, "forcibly taken over")
	assert.Contains(t, msg, "goroutine 18")
	assert.Contains(t, msg, "goroutine 42")
	assert.Contains(t, msg, "cancellation signal was delivered")
	assert.Contains(t, msg, "main.slowWriter")
}

func TestReport_Message_InterruptFailed(t *testing.T) {
	r := sampleReport()
	r.InterruptDelivered = false
	r.InterruptError = "goroutine not registered"
	r.HolderStack = ""
	r.CaptureError = "goroutine not found"

	msg := r.Message()
	assert.Contains(t, msg, "could not be delivered")
	assert.Contains(t, msg, "goroutine not registered")
	assert.Contains(t, msg, "stack unavailable")
}

func TestNewIncidentID(t *testing.T) {
	a := NewIncidentID()
	b := NewIncidentID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestHTMLRenderer(t *testing.T) {
	att, err := NewHTMLRenderer().Render(sampleReport())
	require.NoError(t, err)

	assert.Equal(t, "takeover-t123abc.html", att.Name)
	assert.Equal(t, "text/html; charset=utf-8", att.ContentType)

	html := string(att.Data)
	assert.Contains(t, html, "<!DOCTYPE html>")
	assert.Contains(t, html, "goroutine 18")
	assert.Contains(t, html, "main.slowWriter")
}

func TestHTMLRenderer_EscapesContent(t *testing.T) {
	r := sampleReport()
	r.Key = `<script>alert("x")</script>`

	att, err := NewHTMLRenderer().Render(r)
	require.NoError(t, err)
	assert.NotContains(t, string(att.Data), "<script>")
}

func TestWebhookNotifier_Delivers(t *testing.T) {
	var got webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := NewWebhookNotifier(server.URL)
	require.NoError(t, err)

	report := sampleReport()
	att, err := NewHTMLRenderer().Render(report)
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), report, att))
	assert.NotEmpty(t, got.MessageID)
	assert.Equal(t, report.Subject(), got.Subject)
	assert.Equal(t, report.IncidentID, got.Report.IncidentID)
	require.Len(t, got.Attachments, 1)
	assert.Equal(t, att.Name, got.Attachments[0].Name)
}

func TestWebhookNotifier_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	n, err := NewWebhookNotifier(server.URL,
		WithRetryAttempts(3),
		WithRetryDelay(time.Millisecond),
	)
	require.NoError(t, err)

	require.NoError(t, n.Notify(context.Background(), sampleReport()))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhookNotifier_FailsAfterRetries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n, err := NewWebhookNotifier(server.URL,
		WithRetryAttempts(2),
		WithRetryDelay(time.Millisecond),
	)
	require.NoError(t, err)

	err = n.Notify(context.Background(), sampleReport())
	assert.ErrorIs(t, err, ErrDeliveryFailed)
}

func TestWebhookNotifier_BreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n, err := NewWebhookNotifier(server.URL,
		WithRetryAttempts(4),
		WithRetryDelay(time.Millisecond),
	)
	require.NoError(t, err)

	// 连续失败触发熔断
	for range 2 {
		_ = n.Notify(context.Background(), sampleReport())
	}

	before := calls.Load()
	err = n.Notify(context.Background(), sampleReport())
	assert.ErrorIs(t, err, ErrUnavailable)
	// 熔断开启后不再发出新请求
	assert.Equal(t, before, calls.Load())
}

func TestWebhookNotifier_EmptyEndpoint(t *testing.T) {
	_, err := NewWebhookNotifier("")
	assert.ErrorIs(t, err, ErrEmptyEndpoint)
}

func TestNopNotifier(t *testing.T) {
	assert.NoError(t, NopNotifier{}.Notify(context.Background(), sampleReport()))
}

func TestHistory(t *testing.T) {
	h := NewHistory(2, 0)

	first := sampleReport()
	second := sampleReport()
	second.IncidentID = "t456def"
	third := sampleReport()
	third.IncidentID = "t789ghi"

	h.Add(first)
	h.Add(second)

	got, ok := h.Get("t123abc")
	require.True(t, ok)
	assert.Equal(t, first, got)
	assert.Equal(t, 2, h.Len())

	// 超出容量淘汰最旧条目
	h.Add(third)
	_, ok = h.Get("t123abc")
	assert.False(t, ok)
	assert.Equal(t, 2, h.Len())

	recent := h.Recent()
	require.Len(t, recent, 2)
	assert.Equal(t, "t456def", recent[0].IncidentID)
	assert.Equal(t, "t789ghi", recent[1].IncidentID)
}

func TestHistory_IgnoresInvalid(t *testing.T) {
	h := NewHistory(4, 0)
	h.Add(nil)
	h.Add(&Report{})
	assert.Zero(t, h.Len())
}
