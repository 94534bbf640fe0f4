// Package acquisition 采集循环：按声明顺序逐个接口测速、落盘、驱动指示灯，每轮之间以闪烁节奏空闲等待。
//
// 循环单线程串行执行，只在探针调用和空闲等待处阻塞。ctx 取消即停止：
// 被打断的测速结果直接丢弃，已经 Append 返回的记录都已落盘。
package acquisition

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/ispeed-collector/pkg/config"
	"github.com/ispeed-collector/pkg/indicator"
	"github.com/ispeed-collector/pkg/logger"
	"github.com/ispeed-collector/pkg/metrics"
	"github.com/ispeed-collector/pkg/models"
	"github.com/ispeed-collector/pkg/netif"
	"github.com/ispeed-collector/pkg/probe"
	"github.com/ispeed-collector/pkg/store"
)

// Resolver 把接口解析成源地址
type Resolver interface {
	Resolve(t netif.Target) (string, error)
}

// CreateFunc 为新 Run 创建存储，路径已存在时必须返回 store.ErrRunExists
type CreateFunc func(ctx context.Context, path, table string) (store.Appender, error)

// Deps 采集循环的外部依赖，零值字段在 New 中填默认实现
type Deps struct {
	Prober    probe.Prober
	Indicator indicator.Indicator
	Resolver  Resolver
	Sleeper   Sleeper
	Clock     clockwork.Clock
	Out       io.Writer                   // 进度输出，默认 stdout
	Metrics   *metrics.AcquisitionMetrics // 可为 nil
	Create    CreateFunc
}

// Loop 采集循环
type Loop struct {
	cfg     config.AcquisitionConfig
	targets []netif.Target
	deps    Deps
	runPath string
	open    atomic.Bool
}

// New 创建采集循环，Prober 必填
func New(cfg config.AcquisitionConfig, deps Deps) *Loop {
	if deps.Indicator == nil {
		deps.Indicator = indicator.Noop{}
	}
	if deps.Resolver == nil {
		deps.Resolver = netif.NewResolver(nil)
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if deps.Sleeper == nil {
		deps.Sleeper = NewClockSleeper(deps.Clock)
	}
	if deps.Out == nil {
		deps.Out = os.Stdout
	}
	if deps.Create == nil {
		deps.Create = func(ctx context.Context, path, table string) (store.Appender, error) {
			return store.Create(ctx, path, table)
		}
	}
	return &Loop{
		cfg:     cfg,
		targets: netif.Targets(cfg.Interfaces),
		deps:    deps,
	}
}

// RunPath 当前 Run 的数据库路径（Init 之后有效）
func (l *Loop) RunPath() string {
	return l.runPath
}

// Health 供 /health 使用：Run 的存储未打开时返回错误
func (l *Loop) Health() error {
	if !l.open.Load() {
		return errors.New("run store not open")
	}
	return nil
}

// Run Init 之后无限循环，直到 ctx 取消（返回 nil）或存储写入失败（返回错误）
func (l *Loop) Run(ctx context.Context) error {
	st, err := l.init(ctx)
	if err != nil {
		return err
	}
	l.open.Store(true)
	defer func() {
		l.open.Store(false)
		l.deps.Indicator.Set(indicator.Off)
		if cErr := st.Close(); cErr != nil {
			logger.Error("close run store failed", zap.String("path", l.runPath), zap.Error(cErr))
		}
	}()

	logger.Info("acquisition started",
		zap.String("run", l.runPath),
		zap.Int("interfaces", len(l.targets)),
		zap.Duration("interval", l.cfg.Interval),
		zap.String("indicator", l.deps.Indicator.Name()))

	for cycle := 1; ; cycle++ {
		if err := l.cycle(ctx, st); err != nil {
			return stopErr(err)
		}
		l.deps.Metrics.CycleDone()
		logger.Debug("cycle finished", zap.Int("cycle", cycle))

		if err := l.blink(ctx); err != nil {
			return stopErr(err)
		}
	}
}

// stopErr ctx 取消属于正常停止
func stopErr(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		logger.Info("acquisition stopped", zap.Error(err))
		return nil
	}
	return err
}

// init 以启动时间命名并创建新 Run；同一秒内重名时等到下一秒再试
func (l *Loop) init(ctx context.Context) (store.Appender, error) {
	if err := config.EnsureDir(l.cfg.DataPath); err != nil {
		return nil, fmt.Errorf("prepare data dir: %w", err)
	}
	for attempt := 0; ; attempt++ {
		now := l.deps.Clock.Now()
		path := filepath.Join(l.cfg.DataPath, store.RunName(now, l.cfg.StoreSuffix))
		st, err := l.deps.Create(ctx, path, l.cfg.Table)
		if err == nil {
			l.runPath = path
			return st, nil
		}
		if !errors.Is(err, store.ErrRunExists) || attempt >= l.cfg.RunNameRetries {
			return nil, fmt.Errorf("create run store: %w", err)
		}
		logger.Warn("run name taken, waiting for next second", zap.String("path", path), zap.Int("attempt", attempt+1))
		if err := l.deps.Sleeper.Sleep(ctx, time.Second-now.Sub(now.Truncate(time.Second))); err != nil {
			return nil, err
		}
	}
}

// cycle 每个接口：灯亮 -> 测速 -> 落盘 -> 输出 -> 灯灭
func (l *Loop) cycle(ctx context.Context, st store.Appender) error {
	for _, t := range l.targets {
		if err := l.measure(ctx, st, t); err != nil {
			return err
		}
	}
	return nil
}

func (l *Loop) measure(ctx context.Context, st store.Appender, t netif.Target) error {
	l.deps.Indicator.Set(indicator.On)
	defer l.deps.Indicator.Set(indicator.Off)

	start := l.deps.Clock.Now()
	res := models.FailedResult()
	if addr, err := l.deps.Resolver.Resolve(t); err != nil {
		logger.Warn("resolve source address failed, recording sentinel",
			zap.String("interface", t.Name), zap.String("device", t.Device), zap.Error(err))
	} else {
		res = l.deps.Prober.Measure(ctx, addr)
	}

	// 停止过程中被打断的测速不是真实的失败，不写哨兵
	if err := ctx.Err(); err != nil {
		logger.Info("measurement interrupted, discarded", zap.String("interface", t.Name))
		return err
	}

	m := models.NewMeasurement(l.deps.Clock.Now(), t.Name, res)
	// 结果已产生，写入不再受停止信号影响
	if err := st.Append(context.WithoutCancel(ctx), m); err != nil {
		return err
	}

	l.progress(m)
	logger.Info("measurement stored",
		zap.String("interface", m.Interface),
		zap.Int64("timestamp", m.Timestamp),
		zap.Float64("download_mbps", m.DownloadMbps),
		zap.Float64("upload_mbps", m.UploadMbps),
		zap.Float64("latency_ms", m.LatencyMs))
	l.deps.Metrics.Observe(m, l.deps.Clock.Since(start))
	return nil
}

func (l *Loop) progress(m models.Measurement) {
	_, _ = fmt.Fprintf(l.deps.Out, "%s\ndatetime: %s\ndownload: %v Mbit/s\nupload: %v Mbit/s\nping: %v ms\n\n",
		m.Interface, models.FormatTimestamp(m.Timestamp), m.DownloadMbps, m.UploadMbps, m.LatencyMs)
}

// BlinkPhases 空闲阶段每个亮/灭半周期的时长，总和等于 interval（整除余数忽略）
func BlinkPhases(interval time.Duration, blinks int) []time.Duration {
	if blinks <= 0 {
		return []time.Duration{interval}
	}
	half := interval / time.Duration(2*blinks)
	out := make([]time.Duration, 2*blinks)
	for i := range out {
		out[i] = half
	}
	return out
}

// blink 空闲心跳：亮/灭交替，区别于测速时的常亮
func (l *Loop) blink(ctx context.Context) error {
	defer l.deps.Indicator.Set(indicator.Off)
	for i, d := range BlinkPhases(l.cfg.Interval, l.cfg.Blinks) {
		state := indicator.On
		if i%2 == 1 {
			state = indicator.Off
		}
		l.deps.Indicator.Set(state)
		if err := l.deps.Sleeper.Sleep(ctx, d); err != nil {
			return err
		}
	}
	return nil
}
