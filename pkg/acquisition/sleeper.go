package acquisition

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
)

// Sleeper 可取消的定时等待
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// ClockSleeper 基于 clockwork 时钟，测试中使用 FakeClock 推进
type ClockSleeper struct {
	clock clockwork.Clock
}

// NewClockSleeper clock 为 nil 时使用真实时钟
func NewClockSleeper(clock clockwork.Clock) *ClockSleeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &ClockSleeper{clock: clock}
}

// Sleep 等待 d，ctx 取消时提前返回 ctx.Err()
func (s *ClockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := s.clock.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.Chan():
		return nil
	}
}
