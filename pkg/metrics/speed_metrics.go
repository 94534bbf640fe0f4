package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ispeed-collector/pkg/models"
)

// AcquisitionMetrics 采集循环对外暴露的指标
type AcquisitionMetrics struct {
	Download      *prometheus.GaugeVec     // 最近一次下载速率 Mbit/s
	Upload        *prometheus.GaugeVec     // 最近一次上传速率 Mbit/s
	Latency       *prometheus.GaugeVec     // 最近一次时延 ms
	Measurements  *prometheus.CounterVec   // 已写入的测量条数
	ProbeFailures *prometheus.CounterVec   // 哨兵结果条数
	ProbeDuration *prometheus.HistogramVec // 单次测速耗时
	Cycles        prometheus.Counter       // 完成的采集轮数
}

// NewAcquisitionMetrics 创建并注册采集指标，标签 interface 为接口标签（WLAN/Ethernet）
func (f *MetricFactory) NewAcquisitionMetrics() *AcquisitionMetrics {
	auto := promauto.With(f.reg)
	labels := []string{"interface"}
	return &AcquisitionMetrics{
		Download: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "download_mbps",
			Help:      "Last measured download rate in Mbit/s (-1 on failure)",
		}, labels),
		Upload: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "upload_mbps",
			Help:      "Last measured upload rate in Mbit/s (-1 on failure)",
		}, labels),
		Latency: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "latency_ms",
			Help:      "Last measured round-trip latency in ms (-1 on failure)",
		}, labels),
		Measurements: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "measurements_total",
			Help:      "Measurements appended to the run store",
		}, labels),
		ProbeFailures: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "probe_failures_total",
			Help:      "Measurements recorded with the failure sentinel",
		}, labels),
		ProbeDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "probe_duration_seconds",
			Help:      "Duration of one speed test",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 9), // 1s ~ 256s
		}, labels),
		Cycles: auto.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cycles_total",
			Help:      "Completed acquisition cycles",
		}),
	}
}

// Observe 记录一次已落盘的测量；nil 接收者安全，便于不启用指标时直接调用
func (m *AcquisitionMetrics) Observe(meas models.Measurement, took time.Duration) {
	if m == nil {
		return
	}
	m.Download.WithLabelValues(meas.Interface).Set(meas.DownloadMbps)
	m.Upload.WithLabelValues(meas.Interface).Set(meas.UploadMbps)
	m.Latency.WithLabelValues(meas.Interface).Set(meas.LatencyMs)
	m.Measurements.WithLabelValues(meas.Interface).Inc()
	m.ProbeDuration.WithLabelValues(meas.Interface).Observe(took.Seconds())
	if meas.DownloadMbps == models.Sentinel && meas.UploadMbps == models.Sentinel && meas.LatencyMs == models.Sentinel {
		m.ProbeFailures.WithLabelValues(meas.Interface).Inc()
	}
}

// CycleDone 一轮结束
func (m *AcquisitionMetrics) CycleDone() {
	if m == nil {
		return
	}
	m.Cycles.Inc()
}
