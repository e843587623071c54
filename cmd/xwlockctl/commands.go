package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/dave42/j5basic/pkg/config/xconf"
	"github.com/dave42/j5basic/pkg/observability/xalert"
	"github.com/dave42/j5basic/pkg/observability/xlog"
	"github.com/dave42/j5basic/pkg/util/xinterrupt"
	"github.com/dave42/j5basic/pkg/util/xwlock"
)

// usageError 参数错误，run() 映射为退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func asUsageError(err error, target **usageError) bool {
	return errors.As(err, target)
}

// loadSettings 加载配置：有 --config 时读文件，否则使用出厂默认。
func loadSettings(cmd *cli.Command) (xconf.Settings, xconf.Config, error) {
	path := cmd.String("config")
	if path == "" {
		return xconf.DefaultSettings(), nil, nil
	}

	cfg, err := xconf.New(path)
	if err != nil {
		return xconf.Settings{}, nil, err
	}
	settings, err := xconf.LoadSettings(cfg)
	if err != nil {
		return xconf.Settings{}, nil, err
	}
	return settings, cfg, nil
}

// applyLockFlags 命令行 flag 覆盖配置文件中的等待参数。
func applyLockFlags(cmd *cli.Command, settings *xconf.Settings) error {
	if d := cmd.Duration("max-wait"); d > 0 {
		settings.Lock.MaxWait = d
	}
	if d := cmd.Duration("warn-after"); d > 0 {
		settings.Lock.WarnAfter = d
	}
	if err := settings.Validate(); err != nil {
		return &usageError{msg: err.Error()}
	}
	return nil
}

// buildManager 按配置组装协调器，返回协调器与事件历史。
func buildManager(settings xconf.Settings, logger xlog.Logger, registry *xinterrupt.Registry) (*xwlock.Manager, *xalert.History, error) {
	history := xalert.NewHistory(settings.Alert.HistorySize, 0)

	opts := []xwlock.Option{
		xwlock.WithLogger(logger),
		xwlock.WithInterruptRegistry(registry),
		xwlock.WithHistory(history),
	}
	if settings.Alert.WebhookURL != "" {
		notifier, err := xalert.NewWebhookNotifier(settings.Alert.WebhookURL,
			xalert.WithTimeout(settings.Alert.Timeout))
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, xwlock.WithNotifier(notifier))
	}

	m, err := xwlock.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	if err := m.SetDefaults(settings.Lock.MaxWait, settings.Lock.WarnAfter); err != nil {
		return nil, nil, err
	}
	return m, history, nil
}

// watchSettings 配置热重载：文件变更后原子更新等待参数。
func watchSettings(cfg xconf.Config, m *xwlock.Manager, logger xlog.Logger) (*xconf.Watcher, error) {
	w, err := xconf.Watch(cfg, func(c xconf.Config, err error) {
		ctx := context.Background()
		if err != nil {
			logger.Warn(ctx, "config reload failed", slog.Any("error", err))
			return
		}
		settings, err := xconf.LoadSettings(c)
		if err != nil {
			logger.Warn(ctx, "reloaded config rejected", slog.Any("error", err))
			return
		}
		if err := m.SetDefaults(settings.Lock.MaxWait, settings.Lock.WarnAfter); err != nil {
			logger.Warn(ctx, "reloaded timeouts rejected", slog.Any("error", err))
			return
		}
		logger.Info(ctx, "lock timeouts reloaded",
			slog.Duration("max_wait", settings.Lock.MaxWait),
			slog.Duration("warn_after", settings.Lock.WarnAfter),
		)
	})
	if err != nil {
		return nil, err
	}
	w.StartAsync()
	return w, nil
}

func lockFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "key",
			Usage: "资源键",
			Value: xwlock.DefaultKey,
		},
		&cli.DurationFlag{
			Name:  "max-wait",
			Usage: "等待上限（覆盖配置文件）",
		},
		&cli.DurationFlag{
			Name:  "warn-after",
			Usage: "告警阈值（覆盖配置文件）",
		},
	}
}

func createStressCommand() *cli.Command {
	return &cli.Command{
		Name:  "stress",
		Usage: "多 worker 获取/释放压测，验证互斥与计数收敛",
		Flags: append(lockFlags(),
			&cli.IntFlag{
				Name:    "workers",
				Aliases: []string{"w"},
				Usage:   "并发 worker 数",
				Value:   8,
			},
			&cli.IntFlag{
				Name:    "iterations",
				Aliases: []string{"n"},
				Usage:   "每个 worker 的获取/释放轮次",
				Value:   100,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, cleanup, err := buildLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			settings, cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := applyLockFlags(cmd, &settings); err != nil {
				return err
			}

			m, history, err := buildManager(settings, logger, xinterrupt.NewRegistry())
			if err != nil {
				return err
			}
			if cfg != nil {
				w, err := watchSettings(cfg, m, logger)
				if err != nil {
					return err
				}
				defer func() { _ = w.Stop() }()
			}

			workers := cmd.Int("workers")
			iterations := cmd.Int("iterations")
			if workers <= 0 || iterations <= 0 {
				return &usageError{msg: "workers and iterations must be positive"}
			}

			counter, elapsed, err := runStress(ctx, m, cmd.String("key"), workers, iterations)
			if err != nil {
				return err
			}

			fmt.Printf("workers:    %d\n", workers)
			fmt.Printf("iterations: %d\n", iterations)
			fmt.Printf("counter:    %d (want %d)\n", counter, workers*iterations)
			fmt.Printf("elapsed:    %s\n", elapsed.Round(time.Millisecond))
			fmt.Printf("takeovers:  %d\n", history.Len())
			if counter != workers*iterations {
				return fmt.Errorf("counter diverged: got %d, want %d", counter, workers*iterations)
			}
			return nil
		},
	}
}

// runStress 并发压测主体。counter 只受写锁保护，
// 互斥被破坏时最终计数必然偏离 workers*iterations。
func runStress(ctx context.Context, m *xwlock.Manager, key string, workers, iterations int) (int, time.Duration, error) {
	start := time.Now()
	counter := 0

	g, ctx := errgroup.WithContext(ctx)
	for range workers {
		g.Go(func() error {
			for range iterations {
				if err := m.Acquire(ctx, key); err != nil {
					return err
				}
				counter++
				if err := m.Release(key); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, 0, err
	}
	return counter, time.Since(start), nil
}

func createDemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "慢持有者演练：观察告警与强制接管的完整时间线",
		Flags: append(lockFlags(),
			&cli.DurationFlag{
				Name:  "hold",
				Usage: "持有者计划持有的时长",
				Value: 5 * time.Second,
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, cleanup, err := buildLogger(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = cleanup() }()

			settings, _, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if err := applyLockFlags(cmd, &settings); err != nil {
				return err
			}

			registry := xinterrupt.NewRegistry()
			m, history, err := buildManager(settings, logger, registry)
			if err != nil {
				return err
			}

			return runDemo(ctx, m, registry, history, cmd.String("key"), cmd.Duration("hold"))
		},
	}
}

// runDemo 演练：一个持有者占着不放，一个等待者走完
// 告警 → 接管的完整路径。
func runDemo(ctx context.Context, m *xwlock.Manager, registry *xinterrupt.Registry, history *xalert.History, key string, hold time.Duration) error {
	start := time.Now()
	stamp := func(format string, args ...any) {
		fmt.Printf("[%8s] ", time.Since(start).Round(time.Millisecond))
		fmt.Printf(format+"\n", args...)
	}

	held := make(chan struct{})
	holderDone := make(chan struct{})
	go func() {
		defer close(holderDone)

		hctx, id, unregister := registry.Register(ctx)
		defer unregister()

		if err := m.Acquire(hctx, key); err != nil {
			stamp("holder: acquire failed: %v", err)
			return
		}
		stamp("holder: acquired (goroutine %d), holding for %s", id, hold)
		close(held)

		select {
		case <-hctx.Done():
			stamp("holder: interrupted: %v", context.Cause(hctx))
			if err := m.Release(key); err != nil {
				stamp("holder: release after interruption: %v", err)
			}
		case <-time.After(hold):
			stamp("holder: done, releasing")
			if err := m.Release(key); err != nil {
				stamp("holder: release failed: %v", err)
			}
		}
	}()

	<-held
	stamp("waiter: requesting lock")
	if err := m.Acquire(ctx, key); err != nil {
		return err
	}
	stamp("waiter: lock acquired")
	if err := m.Release(key); err != nil {
		return err
	}
	<-holderDone

	for _, report := range history.Recent() {
		fmt.Printf("\nincident %s: holder goroutine %d seized after %s (interrupt delivered: %v)\n",
			report.IncidentID, report.BlockedBy,
			report.HeldFor.Round(time.Millisecond), report.InterruptDelivered)
	}
	return nil
}

func createValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "加载并校验配置文件，打印生效值",
		Action: func(_ context.Context, cmd *cli.Command) error {
			settings, cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			source := "<defaults>"
			if cfg != nil {
				source = cfg.Path()
			}
			fmt.Printf("source:             %s\n", source)
			fmt.Printf("lock.max_wait:      %s\n", settings.Lock.MaxWait)
			fmt.Printf("lock.warn_after:    %s\n", settings.Lock.WarnAfter)
			fmt.Printf("log.level:          %s\n", settings.Log.Level)
			fmt.Printf("log.format:         %s\n", settings.Log.Format)
			fmt.Printf("alert.webhook_url:  %s\n", settings.Alert.WebhookURL)
			fmt.Printf("alert.timeout:      %s\n", settings.Alert.Timeout)
			fmt.Printf("alert.history_size: %d\n", settings.Alert.HistorySize)
			return nil
		},
	}
}
