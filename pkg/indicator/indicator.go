// Package indicator 状态指示灯：测量中常亮，空闲时闪烁。没有 GPIO 硬件的平台上是空实现。
package indicator

import (
	"sync"

	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/logger"
)

// State 指示灯状态
type State bool

const (
	Off State = false
	On  State = true
)

func (s State) String() string {
	if s {
		return "on"
	}
	return "off"
}

// Indicator 开关量输出，调用频繁，必须幂等且不返回错误
type Indicator interface {
	Set(state State)
	Name() string
}

// Noop 无硬件平台的空实现
type Noop struct{}

func (Noop) Set(State)    {}
func (Noop) Name() string { return "noop" }

// GPIO 基于 periph.io 的引脚输出
type GPIO struct {
	pin    gpio.PinIO
	mu     sync.Mutex
	failed bool
}

func (g *GPIO) Name() string { return "gpio:" + g.pin.Name() }

// Set 写引脚电平；写失败只记录第一次，不向上抛
func (g *GPIO) Set(state State) {
	level := gpio.Low
	if state == On {
		level = gpio.High
	}
	if err := g.pin.Out(level); err != nil {
		g.mu.Lock()
		first := !g.failed
		g.failed = true
		g.mu.Unlock()
		if first {
			logger.Warn("indicator write failed", zap.String("pin", g.pin.Name()), zap.Error(err))
		}
	}
}

// New 启动时做一次能力检测：未启用、驱动初始化失败或找不到引脚都退化为 Noop
func New(cfg config.IndicatorConfig) Indicator {
	if !cfg.Enable {
		return Noop{}
	}
	if _, err := host.Init(); err != nil {
		logger.Warn("gpio host init failed, indicator disabled", zap.Error(err))
		return Noop{}
	}
	pin := gpioreg.ByName(cfg.Pin)
	if pin == nil {
		logger.Warn("gpio pin not found, indicator disabled", zap.String("pin", cfg.Pin))
		return Noop{}
	}
	g := &GPIO{pin: pin}
	g.Set(Off)
	return g
}
