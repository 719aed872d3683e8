package navigation

import (
	"errors"
	"sync"
	"testing"
	"time"

	"venue-guide-be/pkg/venue"

	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 8, 5, 30, 0, 0, time.UTC)

func kashiGraph(t *testing.T) *venue.Graph {
	t.Helper()
	g, err := venue.New(venue.KashiDefinition())
	require.NoError(t, err)
	return g
}

// calmKashi is the Kashi venue with every waypoint at low congestion.
func calmKashi(t *testing.T) *venue.Graph {
	t.Helper()
	g := kashiGraph(t)
	levels := map[string]venue.Congestion{}
	for _, w := range g.All() {
		levels[w.ID] = venue.CongestionLow
	}
	g.ApplyCongestion(venue.CongestionSnapshot{Levels: levels, Timestamp: t0})
	return g
}

// smallGraph is a compact venue laid out along the y axis with one heritage
// point beside the path.
func smallGraph(t *testing.T) *venue.Graph {
	t.Helper()
	g, err := venue.New(venue.Definition{
		Name: "small",
		Waypoints: []venue.Waypoint{
			{ID: "gate-a", Position: venue.Point{X: 0, Y: 0}, Category: venue.CategoryGate, Congestion: venue.CongestionLow},
			{ID: "gate-b", Position: venue.Point{X: 100, Y: 0}, Category: venue.CategoryGate, Congestion: venue.CongestionLow},
			{ID: "exit", Position: venue.Point{X: 200, Y: 0}, Category: venue.CategoryGate, Congestion: venue.CongestionLow},
			{ID: "security", Position: venue.Point{X: 0, Y: 50}, Category: venue.CategorySecurity, Congestion: venue.CongestionLow},
			{ID: "waiting", Position: venue.Point{X: 0, Y: 100}, Category: venue.CategoryQueue, Congestion: venue.CongestionLow},
			{ID: "sanctum", Position: venue.Point{X: 0, Y: 200}, Category: venue.CategorySanctum, Congestion: venue.CongestionLow},
			{ID: "sos-1", Position: venue.Point{X: 50, Y: 50}, Category: venue.CategoryEmergency, Congestion: venue.CongestionLow},
			{ID: "heritage-1", Position: venue.Point{X: 20, Y: 75}, Label: "Old Bell", Category: venue.CategoryHeritage, Congestion: venue.CongestionLow, InsightText: "Cast in 1780."},
		},
	})
	require.NoError(t, err)
	return g
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) listen(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) routes() []RouteChanged {
	var out []RouteChanged
	for _, e := range r.all() {
		if rc, ok := e.(RouteChanged); ok {
			out = append(out, rc)
		}
	}
	return out
}

func (r *recorder) count(eventType string) int {
	n := 0
	for _, e := range r.all() {
		if e.EventType() == eventType {
			n++
		}
	}
	return n
}

func (r *recorder) last(eventType string) (Event, bool) {
	evts := r.all()
	for i := len(evts) - 1; i >= 0; i-- {
		if evts[i].EventType() == eventType {
			return evts[i], true
		}
	}
	return nil, false
}

func newTestSession(g *venue.Graph, gate string, start *venue.Point, rec *recorder) *Session {
	return NewSession(g, SessionConfig{
		ID:           "s-1",
		EntityID:     "pilgrim-1",
		AssignedGate: gate,
		Position:     start,
		Params:       DefaultParams(),
		Listener:     rec.listen,
	})
}

// fakeClock hands out tickers and timers backed by unbuffered channels the
// test drives directly, so every send is a synchronous round.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time

	tick  chan time.Time
	fire  chan time.Time
	armed []time.Duration

	tickerErr error
}

func newFakeClock() *fakeClock {
	return &fakeClock{
		now:  t0,
		tick: make(chan time.Time),
		fire: make(chan time.Time),
	}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func (c *fakeClock) NewTicker(time.Duration) (Ticker, error) {
	if c.tickerErr != nil {
		return nil, c.tickerErr
	}
	return fakeTicker{c: c.tick}, nil
}

func (c *fakeClock) NewTimer(d time.Duration) (Timer, error) {
	c.mu.Lock()
	c.armed = append(c.armed, d)
	c.mu.Unlock()
	return fakeTimer{c: c.fire}, nil
}

func (c *fakeClock) timersArmed() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.armed...)
}

type fakeTicker struct{ c chan time.Time }

func (f fakeTicker) C() <-chan time.Time { return f.c }
func (f fakeTicker) Stop()               {}

type fakeTimer struct{ c chan time.Time }

func (f fakeTimer) C() <-chan time.Time { return f.c }
func (f fakeTimer) Stop() bool          { return true }

var errNoTimers = errors.New("timer wheel exhausted")
