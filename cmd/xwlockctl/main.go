// xwlockctl 是写锁协调器的演练与压测工具。
//
// 用法:
//
//	xwlockctl [全局选项] <命令> [命令参数]
//
// 全局选项:
//
//	-c, --config      配置文件路径（yaml/json，可选）
//	--log-level       日志级别 (debug/info/warn/error, 默认 info)
//	--log-format      日志格式 (text/json, 默认 text)
//
// 命令:
//
//	stress        多 worker 获取/释放压测，验证互斥与计数收敛
//	demo          慢持有者演练：观察告警与强制接管的完整时间线
//	validate      加载并校验配置文件，打印生效值
//	help          显示帮助信息
//
// 退出码:
//
//	0: 执行成功
//	1: 执行失败
//	2: 参数错误
//
// 示例:
//
//	xwlockctl stress --workers 8 --iterations 200
//	xwlockctl demo --hold 5s --max-wait 2s --warn-after 500ms
//	xwlockctl -c /etc/app/config.yaml validate
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/dave42/j5basic/pkg/observability/xlog"
)

// 版本信息（可通过 -ldflags 注入，例如:
//
//	go build -ldflags "-X main.Version=1.0.0 -X main.GitCommit=$(git rev-parse --short HEAD)"
//
// ）。
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

func main() {
	os.Exit(run())
}

func createApp() *cli.Command {
	return &cli.Command{
		Name:    "xwlockctl",
		Usage:   "写锁协调器演练与压测工具",
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "配置文件路径 (yaml/json)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "日志级别 (debug/info/warn/error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "日志格式 (text/json)",
				Value: "text",
			},
		},
		Commands: []*cli.Command{
			createStressCommand(),
			createDemoCommand(),
			createValidateCommand(),
		},
		DefaultCommand: "help",
	}
}

func run() int {
	app := createApp()

	if err := app.Run(context.Background(), os.Args); err != nil {
		var usageErr *usageError
		if ok := asUsageError(err, &usageErr); ok {
			fmt.Fprintf(os.Stderr, "参数错误: %v\n", usageErr)
			return 2
		}
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		return 1
	}
	return 0
}

// buildLogger 根据全局选项构建日志实例。
func buildLogger(cmd *cli.Command) (xlog.LoggerWithLevel, func() error, error) {
	return xlog.New().
		SetLevelString(cmd.String("log-level")).
		SetFormat(cmd.String("log-format")).
		Build()
}
