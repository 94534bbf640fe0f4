package agent

import (
	"context"
	"fmt"
	"os"

	"github.com/shirou/gopsutil/v3/host"
	"go.uber.org/zap"

	"github.com/ispeed-collector/cmd/server"
	"github.com/ispeed-collector/pkg/acquisition"
	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/indicator"
	"github.com/ispeed-collector/pkg/logger"
	"github.com/ispeed-collector/pkg/netif"
	"github.com/ispeed-collector/pkg/probe"
	"github.com/ispeed-collector/pkg/registers"
	"github.com/ispeed-collector/pkg/util"
)

// acquirer 采集循环 + 可选的 /metrics 服务
type acquirer struct {
	cfg *config.Config
}

func newAcquirer(cfg *config.Config) *acquirer {
	return &acquirer{cfg: cfg}
}

func (a *acquirer) Run(ctx context.Context) error {
	util.PrintBanner(os.Stdout, "ispeed", util.ColorCyan)
	logHostInfo(ctx)

	// 1. 指标注册器
	promReg, stats := registers.InitPromRegistry(true)

	// 2. 依赖：探针 / 指示灯 / 地址解析
	resolver := netif.NewResolver(nil)
	resolver.CheckLocal(netif.Targets(a.cfg.Acquisition.Interfaces))

	ind := indicator.New(a.cfg.Indicator)
	prober := probe.NewSpeedtestProber(util.ExecRunner{}, a.cfg.Probe.Command, a.cfg.Probe.Args, a.cfg.Probe.Timeout)

	loop := acquisition.New(a.cfg.Acquisition, acquisition.Deps{
		Prober:    prober,
		Indicator: ind,
		Resolver:  resolver,
		Metrics:   stats,
	})

	// 3. 可选 HTTP 服务
	if a.cfg.Server.Enable {
		httpServer := server.NewHTTPServer(a.cfg.Server, promReg, loop.Health)
		if err := httpServer.Start(); err != nil {
			return fmt.Errorf("start HTTP server failed: %w", err)
		}
		defer func() {
			if err := httpServer.Shutdown(); err != nil {
				logger.Warn("shutdown HTTP server failed", zap.Error(err))
			}
		}()
	}

	// 4. 阻塞直到停止信号或存储失败
	return loop.Run(ctx)
}

// logHostInfo 启动时记录采集节点信息，读取失败不影响采集
func logHostInfo(ctx context.Context) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		logger.Warn("read host info failed", zap.Error(err))
		return
	}
	logger.Info("collector node",
		zap.String("hostname", info.Hostname),
		zap.String("platform", info.Platform),
		zap.String("platform_version", info.PlatformVersion),
		zap.String("kernel_arch", info.KernelArch),
		zap.Uint64("uptime_s", info.Uptime))
}
