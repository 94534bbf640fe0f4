package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/logger"
	"github.com/ispeed-collector/pkg/runmode"
	"github.com/ispeed-collector/pkg/signal"
)

const (
	exitFailure     = 1
	exitInvalidMode = 2
)

var (
	cfgFile string
	runMode string
)

var rootCmd = &cobra.Command{
	Use:   "ispeed",
	Short: "Periodic network speed collector (download/upload/latency per interface) with remote lifecycle control",
	Long: `ispeed measures download/upload throughput and latency over each configured
interface, appends every measurement to a per-run SQLite store and blinks a
status LED while idle. On the operator node the same binary starts, stops and
copies back a remote collector:

  ispeed --runmode init      start acquisition on the collector node
  ispeed --runmode copy      copy remote runs without interrupting them
  ispeed --runmode finish    stop acquisition, then copy
  ispeed --runmode update    push this binary to the collector node
  ispeed --runmode latest    show the newest local run`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if code := execute(cmd, os.Stderr); code != 0 {
			os.Exit(code)
		}
		return nil
	},
}

// execute 返回进程退出码
func execute(cmd *cobra.Command, stderr io.Writer) int {
	// 1. 先解析运行模式：非法时不加载配置、不触碰网络/存储/指示灯
	mode, err := runmode.Parse(runMode)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitInvalidMode
	}

	// 2. 加载配置（Flags + YAML + ENV）
	cfg, err := config.LoadConfigWithCli(cmd)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintf(stderr, "请检查配置文件路径或使用 -c 参数指定\n")
		return exitFailure
	}

	if err := run(cmd, mode, cfg); err != nil {
		logger.Error("run failed", zap.String("runmode", mode.String()), zap.Error(err))
		_ = logger.Sync()
		fmt.Fprintf(stderr, "Error: %v\n", err)
		if errors.Is(err, runmode.ErrInvalidRunMode) {
			return exitInvalidMode
		}
		return exitFailure
	}
	return 0
}

func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "-> Config file path | 配置文件路径")
	rootCmd.PersistentFlags().StringVarP(&runMode, "runmode", "r", "", "-> Run mode [main,init,finish,update,copy,latest], empty runs the loop | 运行模式")
	// 注册分组 flag
	initAcquisitionFlags(rootCmd)
	initProbeFlags(rootCmd)
	initIndicatorFlags(rootCmd)
	initRemoteFlags(rootCmd)
	initServerFlags(rootCmd)
	initLogFlags(rootCmd)
}

func run(cmd *cobra.Command, mode runmode.Mode, cfg *config.Config) error {
	if err := logger.Init(cfg.Log); err != nil {
		return fmt.Errorf("日志初始化失败: %w", err)
	}
	defer logger.Sync()
	logger.SetDefaultComponent(component(mode))

	ctx, cancel := signal.WithShutdown(cmd.Context())
	defer cancel()

	var closers []func() error
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("close failed", zap.Error(err))
			}
		}
	}()

	return runmode.Dispatch(ctx, mode, runmode.Handlers{
		Acquirer: func() (runmode.Acquirer, error) {
			return newAcquirer(cfg), nil
		},
		Lifecycle: func() (runmode.Lifecycle, error) {
			ctl, closeFn, err := newController(ctx, cfg)
			if err != nil {
				return nil, err
			}
			closers = append(closers, closeFn)
			return ctl, nil
		},
		Latest: func(ctx context.Context) error {
			return printLatest(ctx, cfg, os.Stdout)
		},
	})
}

func component(mode runmode.Mode) string {
	switch mode {
	case runmode.Default, runmode.Main:
		return "acquisition"
	case runmode.Latest:
		return "latest"
	default:
		return "remote"
	}
}
