package navigation

import (
	"fmt"
	"time"
)

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// Clock is the source of time and timers for a Runner.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) (Ticker, error)
	NewTimer(d time.Duration) (Timer, error)
}

type realClock struct{}

// RealClock is backed by the time package.
func RealClock() Clock { return realClock{} }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) (Ticker, error) {
	if d <= 0 {
		return nil, fmt.Errorf("%w: tick interval %s", ErrSchedulerUnavailable, d)
	}
	return realTicker{time.NewTicker(d)}, nil
}

func (realClock) NewTimer(d time.Duration) (Timer, error) {
	if d < 0 {
		d = 0
	}
	return realTimer{time.NewTimer(d)}, nil
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

type realTimer struct{ t *time.Timer }

func (r realTimer) C() <-chan time.Time { return r.t.C }
func (r realTimer) Stop() bool          { return r.t.Stop() }
