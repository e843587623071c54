package xconf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 配置文件格式。
type Format string

const (
	// FormatYAML YAML 格式。
	FormatYAML Format = "yaml"

	// FormatJSON JSON 格式。
	FormatJSON Format = "json"
)

// Options 配置加载选项。
type Options struct {
	// Delim 配置键分隔符，默认 "."。
	Delim string

	// Tag 反序列化使用的结构体标签，默认 "koanf"。
	Tag string
}

// Option 配置选项函数。
type Option func(*Options)

// WithDelim 设置配置键分隔符。
func WithDelim(delim string) Option {
	return func(o *Options) {
		if delim != "" {
			o.Delim = delim
		}
	}
}

// WithTag 设置反序列化结构体标签。
func WithTag(tag string) Option {
	return func(o *Options) {
		if tag != "" {
			o.Tag = tag
		}
	}
}

func defaultOptions() *Options {
	return &Options{Delim: ".", Tag: "koanf"}
}

// Config 配置访问接口。
// 基础读取操作直接使用 Client() 返回的 koanf 实例。
type Config interface {
	// Client 返回底层 koanf 实例。
	Client() *koanf.Koanf

	// Unmarshal 将指定路径下的配置反序列化到 target。
	// path 为空时反序列化整个配置树。
	Unmarshal(path string, target any) error

	// Reload 重新读取配置文件。并发安全。
	// 从字节数据创建的实例不支持重载。
	Reload() error

	// Path 返回配置文件路径；字节数据来源返回空串。
	Path() string

	// Format 返回配置格式。
	Format() Format
}

// fileConfig Config 的 koanf 实现。
type fileConfig struct {
	mu      sync.RWMutex
	k       *koanf.Koanf
	path    string
	format  Format
	opts    *Options
	isBytes bool
}

var _ Config = (*fileConfig)(nil)

// New 从文件创建配置实例，按扩展名识别格式（.yaml/.yml/.json）。
func New(path string, opts ...Option) (Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}

	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	k := koanf.New(options.Delim)
	if err := loadData(k, data, format); err != nil {
		return nil, err
	}

	return &fileConfig{k: k, path: path, format: format, opts: options}, nil
}

// NewFromBytes 从字节数据创建配置实例，格式需显式指定。
// 空数据创建空配置，与 New 读空文件的行为一致。
func NewFromBytes(data []byte, format Format, opts ...Option) (Config, error) {
	if format != FormatYAML && format != FormatJSON {
		return nil, ErrUnsupportedFormat
	}

	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	k := koanf.New(options.Delim)
	if len(data) > 0 {
		if err := loadData(k, data, format); err != nil {
			return nil, err
		}
	}

	return &fileConfig{k: k, format: format, opts: options, isBytes: true}, nil
}

func (c *fileConfig) Client() *koanf.Koanf {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.k
}

func (c *fileConfig) Unmarshal(path string, target any) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if err := c.k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.Tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

func (c *fileConfig) Reload() error {
	if c.isBytes {
		return errors.New("xconf: cannot reload config created from bytes")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	// 先在新实例上完成解析，失败时保留旧配置不受影响。
	fresh := koanf.New(c.opts.Delim)
	if err := loadData(fresh, data, c.format); err != nil {
		return err
	}

	c.mu.Lock()
	c.k = fresh
	c.mu.Unlock()
	return nil
}

func (c *fileConfig) Path() string { return c.path }

func (c *fileConfig) Format() Format { return c.format }

func detectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
