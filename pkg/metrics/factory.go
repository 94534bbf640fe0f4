package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Namespace 所有指标的前缀
const Namespace = "ispeed"

// Registers 隔离 Prometheus 具体实现，单测可以换成独立的 Registry
type Registers interface {
	prometheus.Registerer
	prometheus.Gatherer
}

// NewRegistry 创建独立注册器（不注册 Go 运行时指标），可选进程指标
func NewRegistry(enableProcess bool) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	if enableProcess {
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{Namespace: Namespace}))
	}
	return reg
}

// MetricFactory 指标工厂，用于统一创建并注册指标（counter/gauge/histogram）
type MetricFactory struct {
	reg Registers
}

// NewMetricFactory 创建指标工厂
func NewMetricFactory(reg Registers) *MetricFactory {
	return &MetricFactory{reg: reg}
}

// Gatherer 供 /metrics 端点使用
func (f *MetricFactory) Gatherer() prometheus.Gatherer {
	return f.reg
}
