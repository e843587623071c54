package xlog

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"log/slog"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildJSONLogger(t *testing.T) (LoggerWithLevel, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, cleanup, err := New().
		SetOutput(&buf).
		SetFormat("json").
		SetLevel(LevelDebug).
		Build()
	require.NoError(t, err)
	t.Cleanup(func() { _ = cleanup() })
	return logger, &buf
}

func TestBuilder_Defaults(t *testing.T) {
	logger, cleanup, err := New().Build()
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	assert.Equal(t, LevelInfo, logger.GetLevel())
	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), LevelInfo))
}

func TestBuilder_InvalidFormat(t *testing.T) {
	_, _, err := New().SetFormat("xml").Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestBuilder_InvalidLevelString(t *testing.T) {
	_, _, err := New().SetLevelString("loud").Build()
	require.Error(t, err)
}

func TestBuilder_EmptyRotationFilename(t *testing.T) {
	_, _, err := New().SetRotation("  ").Build()
	require.Error(t, err)
}

func TestLogger_JSONOutput(t *testing.T) {
	logger, buf := buildJSONLogger(t)

	logger.Info(context.Background(), "hello", slog.String("key", "db"))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "db", record["key"])
	assert.Equal(t, "INFO", record["level"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	logger, buf := buildJSONLogger(t)
	logger.SetLevel(LevelWarn)

	logger.Debug(context.Background(), "dropped")
	logger.Info(context.Background(), "dropped too")
	assert.Zero(t, buf.Len())

	logger.Warn(context.Background(), "kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestLogger_DynamicLevel(t *testing.T) {
	logger, buf := buildJSONLogger(t)
	logger.SetLevel(LevelError)
	assert.Equal(t, LevelError, logger.GetLevel())

	logger.Info(context.Background(), "before")
	assert.Zero(t, buf.Len())

	logger.SetLevel(LevelDebug)
	logger.Debug(context.Background(), "after")
	assert.Contains(t, buf.String(), "after")
}

func TestLogger_WithSharesLevel(t *testing.T) {
	logger, buf := buildJSONLogger(t)
	derived := logger.With(slog.String("component", "wlock"))

	logger.SetLevel(LevelError)
	derived.Info(context.Background(), "filtered")
	assert.Zero(t, buf.Len())

	logger.SetLevel(LevelInfo)
	derived.Info(context.Background(), "visible")
	assert.Contains(t, buf.String(), `"component":"wlock"`)
}

func TestLogger_WithNoAttrsReturnsSame(t *testing.T) {
	logger, _ := buildJSONLogger(t)
	assert.Same(t, logger, logger.With())
}

func TestLogger_Stack(t *testing.T) {
	logger, buf := buildJSONLogger(t)

	logger.Stack(context.Background(), "boom")

	out := buf.String()
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "goroutine")
	assert.Contains(t, out, "TestLogger_Stack")
}

func TestLogger_NilContext(t *testing.T) {
	logger, buf := buildJSONLogger(t)

	assert.NotPanics(t, func() {
		logger.Info(nil, "nil ctx") //nolint:staticcheck // 故意传 nil 验证兜底
	})
	assert.Contains(t, buf.String(), "nil ctx")
}

func TestCurrentStack(t *testing.T) {
	s := CurrentStack()
	assert.True(t, strings.HasPrefix(s, "goroutine "))
	assert.Contains(t, s, "TestCurrentStack")
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"Warn", LevelWarn, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"  info  ", LevelInfo, false},
		{"", LevelInfo, false},
		{"fatal", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLevel_TextRoundTrip(t *testing.T) {
	for _, level := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		data, err := level.MarshalText()
		require.NoError(t, err)

		var parsed Level
		require.NoError(t, parsed.UnmarshalText(data))
		assert.Equal(t, level, parsed)
	}
}

func TestGlobal_SetAndReset(t *testing.T) {
	defer ResetDefault()

	var buf bytes.Buffer
	logger, cleanup, err := New().SetOutput(&buf).SetFormat("json").Build()
	require.NoError(t, err)
	defer func() { _ = cleanup() }()

	SetDefault(logger)
	Info(context.Background(), "via global")
	assert.Contains(t, buf.String(), "via global")

	// nil 入参被忽略
	SetDefault(nil)
	assert.NotNil(t, Default())
}
