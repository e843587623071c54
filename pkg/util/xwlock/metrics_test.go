package xwlock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// sumCounter 汇总指定 counter 的全部数据点。
func sumCounter(t *testing.T, rm *metricdata.ResourceMetrics, name string) (total int64, found bool) {
	t.Helper()
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			found = true
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total, found
}

func TestMetrics_AcquireModes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m := newTestManager(t, WithMeterProvider(mp))
	ctx := context.Background()

	require.NoError(t, m.Acquire(ctx, DefaultKey))   // free
	require.NoError(t, m.Acquire(ctx, DefaultKey))   // reentrant
	require.NoError(t, m.Release(DefaultKey))
	require.NoError(t, m.Release(DefaultKey))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	total, found := sumCounter(t, &rm, "xwlock.acquires")
	require.True(t, found)
	assert.Equal(t, int64(2), total)
}

func TestMetrics_TakeoverCounted(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m := newTestManager(t, WithMeterProvider(mp))

	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = m.Acquire(context.Background(), DefaultKey)
		close(held)
		<-release
	}()

	<-held
	require.NoError(t, m.Acquire(context.Background(), DefaultKey,
		WithMaxWait(100*time.Millisecond), WithWarnAfter(40*time.Millisecond)))
	require.NoError(t, m.Release(DefaultKey))
	close(release)
	<-done

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	takeovers, found := sumCounter(t, &rm, "xwlock.takeovers")
	require.True(t, found)
	assert.Equal(t, int64(1), takeovers)

	warnings, found := sumCounter(t, &rm, "xwlock.warnings")
	require.True(t, found)
	assert.Equal(t, int64(1), warnings)
}

func TestTrace_WaitSpanRecorded(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	m := newTestManager(t, WithTracerProvider(tp))

	held := make(chan struct{})
	go func() {
		_ = m.Acquire(context.Background(), DefaultKey)
		close(held)
		time.Sleep(30 * time.Millisecond)
		_ = m.Release(DefaultKey)
	}()

	<-held
	require.NoError(t, m.Acquire(context.Background(), DefaultKey,
		WithMaxWait(5*time.Second), WithWarnAfter(time.Second)))
	require.NoError(t, m.Release(DefaultKey))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "xwlock.wait", spans[0].Name())
}
