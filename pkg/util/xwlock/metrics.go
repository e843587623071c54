package xwlock

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/dave42/j5basic/pkg/util/xwlock"

// 获取路径分类。
const (
	modeFree      = "free"      // 空闲直接认领
	modeReentrant = "reentrant" // 自己已持有，计数递增
	modeWait      = "wait"      // 等待后由释放让出
	modeTakeover  = "takeover"  // 等待超限后强制接管
)

// managerMetrics 协调器的 otel 指标。
type managerMetrics struct {
	acquires  metric.Int64Counter
	warnings  metric.Int64Counter
	takeovers metric.Int64Counter
	waitTime  metric.Float64Histogram
}

func newManagerMetrics(mp metric.MeterProvider) (*managerMetrics, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(instrumentationName)

	var (
		mm  managerMetrics
		err error
	)
	if mm.acquires, err = meter.Int64Counter("xwlock.acquires",
		metric.WithDescription("Write lock acquisitions by mode"),
	); err != nil {
		return nil, fmt.Errorf("xwlock: create acquires counter: %w", err)
	}
	if mm.warnings, err = meter.Int64Counter("xwlock.warnings",
		metric.WithDescription("Slow-holder warnings emitted"),
	); err != nil {
		return nil, fmt.Errorf("xwlock: create warnings counter: %w", err)
	}
	if mm.takeovers, err = meter.Int64Counter("xwlock.takeovers",
		metric.WithDescription("Forced takeovers performed"),
	); err != nil {
		return nil, fmt.Errorf("xwlock: create takeovers counter: %w", err)
	}
	if mm.waitTime, err = meter.Float64Histogram("xwlock.wait.duration",
		metric.WithDescription("Time spent waiting for the write lock"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("xwlock: create wait histogram: %w", err)
	}
	return &mm, nil
}

// 指标记录使用 WithoutCancel：调用方 ctx 取消不应丢失观测数据。

func (mm *managerMetrics) recordAcquire(ctx context.Context, key, mode string) {
	mm.acquires.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("lock.key", key),
		attribute.String("lock.mode", mode),
	))
}

func (mm *managerMetrics) recordWarning(ctx context.Context, key string) {
	mm.warnings.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("lock.key", key),
	))
}

func (mm *managerMetrics) recordTakeover(ctx context.Context, key string) {
	mm.takeovers.Add(context.WithoutCancel(ctx), 1, metric.WithAttributes(
		attribute.String("lock.key", key),
	))
}

func (mm *managerMetrics) recordWait(ctx context.Context, key string, waited time.Duration) {
	mm.waitTime.Record(context.WithoutCancel(ctx), waited.Seconds(), metric.WithAttributes(
		attribute.String("lock.key", key),
	))
}

func newTracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(instrumentationName)
}
