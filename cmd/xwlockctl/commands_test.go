package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dave42/j5basic/pkg/config/xconf"
	"github.com/dave42/j5basic/pkg/observability/xlog"
	"github.com/dave42/j5basic/pkg/util/xinterrupt"
)

func TestRunStress_CounterConverges(t *testing.T) {
	settings := xconf.DefaultSettings()
	m, history, err := buildManager(settings, xlog.Default(), xinterrupt.NewRegistry())
	require.NoError(t, err)

	const workers = 4
	const iterations = 25
	counter, elapsed, err := runStress(context.Background(), m, "stress-test", workers, iterations)
	require.NoError(t, err)

	assert.Equal(t, workers*iterations, counter)
	assert.Positive(t, elapsed)
	assert.Zero(t, history.Len(), "uncontended-enough stress must not trigger takeovers")
	assert.Empty(t, m.Holders())
}

func TestRunDemo_TakeoverTimeline(t *testing.T) {
	settings := xconf.DefaultSettings()
	settings.Lock.MaxWait = 150 * time.Millisecond
	settings.Lock.WarnAfter = 50 * time.Millisecond

	registry := xinterrupt.NewRegistry()
	m, history, err := buildManager(settings, xlog.Default(), registry)
	require.NoError(t, err)

	// 持有者想占 5s，等待者 150ms 后接管
	require.NoError(t, runDemo(context.Background(), m, registry, history, "demo-test", 5*time.Second))
	assert.Equal(t, 1, history.Len())
}

func TestBuildManager_InvalidWebhook(t *testing.T) {
	settings := xconf.DefaultSettings()
	settings.Alert.WebhookURL = "" // NopNotifier 路径
	_, _, err := buildManager(settings, xlog.Default(), xinterrupt.NewRegistry())
	require.NoError(t, err)
}

func TestSettingsFromConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
lock:
  max_wait: 8s
  warn_after: 1s
`), 0o600))

	cfg, err := xconf.New(path)
	require.NoError(t, err)
	settings, err := xconf.LoadSettings(cfg)
	require.NoError(t, err)

	assert.Equal(t, 8*time.Second, settings.Lock.MaxWait)
	assert.Equal(t, time.Second, settings.Lock.WarnAfter)
}

func TestValidateCommand_PrintsDefaults(t *testing.T) {
	app := createApp()
	err := app.Run(context.Background(), []string{"xwlockctl", "validate"})
	require.NoError(t, err)
}
