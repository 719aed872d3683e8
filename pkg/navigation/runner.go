package navigation

import (
	"fmt"
	"sync"
	"time"

	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/pkg/venue"
)

// Runner drives one Session on its own goroutine. Commands, ticks and insight
// expiry are serialized there, so the Session never sees concurrent calls.
//
// Within one round pending commands (congestion, SOS) are applied before the
// tick, so the entity never moves a step along a route that is already stale.
//
// Runner methods must not be called from the session's Listener: the listener
// runs on the runner goroutine and would deadlock waiting on itself.
type Runner struct {
	session  *Session
	clock    Clock
	interval time.Duration
	logger   logger.ILogger

	cmds     chan func(now time.Time)
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func NewRunner(session *Session, clock Clock, interval time.Duration, log logger.ILogger) *Runner {
	if clock == nil {
		clock = RealClock()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	r := &Runner{
		session:  session,
		clock:    clock,
		interval: interval,
		logger:   log,
		cmds:     make(chan func(now time.Time)),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go r.loop()
	return r
}

func (r *Runner) SessionID() string { return r.session.ID() }

// Start begins navigation. The loop arms the ticker on its next pass, before
// it accepts any later command.
func (r *Runner) Start() error {
	var err error
	if cerr := r.call(func(now time.Time) { err = r.session.Start(now) }); cerr != nil {
		return cerr
	}
	return err
}

// ApplySnapshot writes the snapshot to the graph and evaluates this session.
func (r *Runner) ApplySnapshot(snap venue.CongestionSnapshot) (venue.CongestionResult, error) {
	var res venue.CongestionResult
	err := r.call(func(now time.Time) { res = r.session.OnCongestion(snap, now) })
	return res, err
}

// EvaluateCongestion re-runs the reroute policy after the shared graph was
// updated elsewhere.
func (r *Runner) EvaluateCongestion(distinct bool) error {
	return r.call(func(now time.Time) { r.session.EvaluateCongestion(distinct, now) })
}

func (r *Runner) TriggerSOS() error {
	var err error
	if cerr := r.call(func(now time.Time) { err = r.session.TriggerSOS(now) }); cerr != nil {
		return cerr
	}
	return err
}

func (r *Runner) ClearSOS() error {
	var err error
	if cerr := r.call(func(now time.Time) { err = r.session.ClearSOS(now) }); cerr != nil {
		return cerr
	}
	return err
}

func (r *Runner) DismissInsight() (bool, error) {
	var ok bool
	err := r.call(func(now time.Time) { ok = r.session.DismissInsight(now) })
	return ok, err
}

func (r *Runner) Status() (Status, error) {
	var st Status
	err := r.call(func(time.Time) { st = r.session.Status() })
	return st, err
}

// Terminate stops the runner and waits for its goroutine to exit. No event is
// emitted once it returns. Safe to call more than once.
func (r *Runner) Terminate() {
	r.stopOnce.Do(func() { close(r.stop) })
	<-r.done
}

// Done is closed when the runner goroutine has exited.
func (r *Runner) Done() <-chan struct{} { return r.done }

func (r *Runner) call(fn func(now time.Time)) error {
	reply := make(chan struct{})
	cmd := func(now time.Time) {
		defer close(reply)
		fn(now)
	}
	select {
	case r.cmds <- cmd:
	case <-r.done:
		return ErrSessionTerminated
	}
	select {
	case <-reply:
		return nil
	case <-r.done:
		return ErrSessionTerminated
	}
}

func (r *Runner) loop() {
	defer close(r.done)

	var (
		ticker  Ticker
		timer   Timer
		timerAt time.Time
	)
	defer func() {
		if ticker != nil {
			ticker.Stop()
		}
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		ticker = r.syncTicker(ticker)
		timer, timerAt = r.syncTimer(timer, timerAt)

		var tickC, expC <-chan time.Time
		if ticker != nil {
			tickC = ticker.C()
		}
		if timer != nil {
			expC = timer.C()
		}

		select {
		case <-r.stop:
			r.session.Terminate()
			return

		case cmd := <-r.cmds:
			r.safely(cmd)

		case <-tickC:
			// a tick queued behind Terminate must not produce an update
			if r.stopping() {
				r.session.Terminate()
				return
			}
			r.drainCommands()
			r.safely(r.session.Tick)

		case <-expC:
			timer = nil
			r.safely(func(now time.Time) { r.session.ExpireInsight(now) })
		}
	}
}

func (r *Runner) stopping() bool {
	select {
	case <-r.stop:
		return true
	default:
		return false
	}
}

func (r *Runner) drainCommands() {
	for {
		select {
		case cmd := <-r.cmds:
			r.safely(cmd)
		default:
			return
		}
	}
}

// safely runs one unit of work. A panic degrades the session instead of
// killing the process.
func (r *Runner) safely(fn func(now time.Time)) {
	now := r.clock.Now()
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("Runner", "Recovered panic in session round", map[string]interface{}{
				"session_id": r.session.ID(),
				"panic":      fmt.Sprint(rec),
			})
			r.session.Fail(ErrCodeInternal, fmt.Errorf("panic: %v", rec), now)
		}
	}()
	fn(now)
}

func (r *Runner) syncTicker(ticker Ticker) Ticker {
	want := r.session.WantsTicker()
	switch {
	case want && ticker == nil:
		t, err := r.clock.NewTicker(r.interval)
		if err != nil {
			r.logger.Error("Runner", "Movement ticker failed to arm", map[string]interface{}{
				"session_id": r.session.ID(),
				"error":      err.Error(),
			})
			r.session.Fail(ErrCodeScheduler, err, r.clock.Now())
			return nil
		}
		return t
	case !want && ticker != nil:
		ticker.Stop()
		return nil
	}
	return ticker
}

func (r *Runner) syncTimer(timer Timer, armedFor time.Time) (Timer, time.Time) {
	deadline, ok := r.session.InsightDeadline()
	if !ok {
		if timer != nil {
			timer.Stop()
		}
		return nil, time.Time{}
	}
	if timer != nil && deadline.Equal(armedFor) {
		return timer, armedFor
	}
	// a new insight replaces the pending expiry
	if timer != nil {
		timer.Stop()
	}
	t, err := r.clock.NewTimer(deadline.Sub(r.clock.Now()))
	if err != nil {
		r.session.Fail(ErrCodeScheduler, err, r.clock.Now())
		return nil, time.Time{}
	}
	return t, deadline
}
