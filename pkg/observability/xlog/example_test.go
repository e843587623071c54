package xlog_test

import (
	"context"
	"log/slog"
	"os"

	"github.com/dave42/j5basic/pkg/observability/xlog"
)

func Example() {
	logger, cleanup, err := xlog.New().
		SetOutput(os.Stdout).
		SetFormat("json").
		SetLevel(xlog.LevelInfo).
		Build()
	if err != nil {
		panic(err)
	}
	defer func() { _ = cleanup() }()

	ctx := context.Background()
	logger.Info(ctx, "lock acquired", slog.String("key", "db"))
	logger.Debug(ctx, "filtered out")
}

func ExampleBuilder_SetRotation() {
	logger, cleanup, err := xlog.New().
		SetRotation("/var/log/app/app.log",
			xlog.WithMaxSizeMB(50),
			xlog.WithMaxBackups(7),
			xlog.WithCompress(true),
		).
		Build()
	if err != nil {
		panic(err)
	}
	defer func() { _ = cleanup() }()

	logger.Info(context.Background(), "service started")
}
