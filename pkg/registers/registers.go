package registers

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ispeed-collector/pkg/logger"
	"github.com/ispeed-collector/pkg/metrics"
)

// InitPromRegistry 返回值
// promReg  *prometheus.Registry         /metrics 端点暴露或单元测试使用
// acqStats *metrics.AcquisitionMetrics  注入采集循环，每条测量落盘后更新
func InitPromRegistry(enableProcess bool) (*prometheus.Registry, *metrics.AcquisitionMetrics) {
	// 1. 独立注册器（不注册 Go 运行时指标）
	promReg := metrics.NewRegistry(enableProcess)

	// 2. 通过工厂注册采集指标
	acqStats := metrics.NewMetricFactory(promReg).NewAcquisitionMetrics()

	logger.Debug("prometheus registry initialized", zap.Bool("process_metrics", enableProcess))
	return promReg, acqStats
}
