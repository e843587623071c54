package xlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Builder 日志配置构建器
type Builder struct {
	output    io.Writer
	levelVar  *slog.LevelVar
	format    string
	addSource bool
	rotator   *lumberjack.Logger
	err       error
}

// RotateOption 文件轮转配置选项
type RotateOption func(*lumberjack.Logger)

// WithMaxSizeMB 设置单个日志文件的最大体积（MB），默认 100。
func WithMaxSizeMB(n int) RotateOption {
	return func(l *lumberjack.Logger) {
		if n > 0 {
			l.MaxSize = n
		}
	}
}

// WithMaxBackups 设置保留的旧文件数量，默认不限制。
func WithMaxBackups(n int) RotateOption {
	return func(l *lumberjack.Logger) {
		if n > 0 {
			l.MaxBackups = n
		}
	}
}

// WithMaxAgeDays 设置旧文件的最大保留天数，默认不限制。
func WithMaxAgeDays(n int) RotateOption {
	return func(l *lumberjack.Logger) {
		if n > 0 {
			l.MaxAge = n
		}
	}
}

// WithCompress 设置是否压缩轮转出的旧文件，默认不压缩。
func WithCompress(enable bool) RotateOption {
	return func(l *lumberjack.Logger) {
		l.Compress = enable
	}
}

// New 创建配置构建器
//
// 默认配置：输出到 stderr，Info 级别，text 格式。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelInfo)

	return &Builder{
		output:   os.Stderr,
		levelVar: levelVar,
		format:   "text",
	}
}

// SetOutput 设置日志输出目标
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w != nil {
		b.output = w
	}
	return b
}

// SetLevel 设置日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.err = err
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json
func (b *Builder) SetFormat(format string) *Builder {
	normalized := strings.ToLower(strings.TrimSpace(format))
	if normalized == "" {
		// 空值视为使用默认格式，避免误把"没填"变成配置错误。
		b.format = "text"
		return b
	}
	if normalized != "text" && normalized != "json" {
		b.err = fmt.Errorf("xlog: unknown format %q", format)
		return b
	}
	b.format = normalized
	return b
}

// SetAddSource 是否在日志中添加源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetRotation 设置基于 lumberjack 的文件轮转输出
//
// 设置后 output 指向轮转文件，cleanup 函数负责关闭文件句柄。
func (b *Builder) SetRotation(filename string, opts ...RotateOption) *Builder {
	if strings.TrimSpace(filename) == "" {
		b.err = fmt.Errorf("xlog: rotation filename is empty")
		return b
	}
	rotator := &lumberjack.Logger{
		Filename: filename,
		MaxSize:  100, // MB
	}
	for _, opt := range opts {
		if opt != nil {
			opt(rotator)
		}
	}
	b.rotator = rotator
	b.output = rotator
	return b
}

// Build 构建 Logger 实例
//
// 返回值：
//   - LoggerWithLevel: 日志实例，同时支持动态级别控制
//   - func() error: 清理函数，用于释放资源（如关闭轮转文件）
//   - error: 配置错误
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	opts := &slog.HandlerOptions{
		Level:     b.levelVar,
		AddSource: b.addSource,
	}

	var handler slog.Handler
	switch b.format {
	case "json":
		handler = slog.NewJSONHandler(b.output, opts)
	default:
		handler = slog.NewTextHandler(b.output, opts)
	}

	logger := &xlogger{
		handler:   handler,
		levelVar:  b.levelVar,
		addSource: b.addSource,
	}

	return logger, b.createCleanup(), nil
}

// createCleanup 创建清理函数（幂等）
func (b *Builder) createCleanup() func() error {
	var once sync.Once
	rotator := b.rotator

	return func() error {
		var err error
		once.Do(func() {
			if rotator != nil {
				err = rotator.Close()
			}
		})
		return err
	}
}
