package navigation

import (
	"testing"
	"time"

	"venue-guide-be/pkg/venue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRunner(t *testing.T, g *venue.Graph, start venue.Point, clk Clock, rec *recorder) *Runner {
	t.Helper()
	s := newTestSession(g, "gate-a", &start, rec)
	r := NewRunner(s, clk, 100*time.Millisecond, nil)
	t.Cleanup(r.Terminate)
	return r
}

// waitFor blocks until the recorder has seen n events of the given type. A
// tick handed to the runner is applied after any command already queued, so
// tests wait for its effect before issuing the next command.
func waitFor(t *testing.T, rec *recorder, eventType string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return rec.count(eventType) >= n
	}, time.Second, time.Millisecond)
}

func TestRunnerTicksMoveTheEntity(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{}
	r := newTestRunner(t, smallGraph(t), venue.Point{X: 0, Y: 40}, clk, rec)

	require.NoError(t, r.Start())
	assert.ErrorIs(t, r.Start(), ErrAlreadyStarted)

	for i := 0; i < 3; i++ {
		clk.Advance(100 * time.Millisecond)
		clk.tick <- clk.Now()
		waitFor(t, rec, EventPositionUpdate, i+1)
	}

	st, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, venue.Point{X: 0, Y: 34}, st.Position)
	assert.Equal(t, 3, rec.count(EventPositionUpdate))
}

func TestRunnerCommandsApplyBeforeTick(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{}
	g := smallGraph(t)
	r := newTestRunner(t, g, venue.Point{X: 0, Y: 40}, clk, rec)
	require.NoError(t, r.Start())

	res, err := r.ApplySnapshot(venue.CongestionSnapshot{
		Levels: map[string]venue.Congestion{"gate-a": venue.CongestionHigh},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Changed)

	clk.tick <- clk.Now()
	waitFor(t, rec, EventPositionUpdate, 1)

	st, err := r.Status()
	require.NoError(t, err)
	assert.True(t, st.Rerouted)
	assert.Equal(t, []string{"gate-b", "waiting", "sanctum"}, st.Route.Waypoints)

	// the one tick moved toward the new target
	pu, ok := rec.last(EventPositionUpdate)
	require.True(t, ok)
	assert.Greater(t, pu.(PositionUpdate).X, 0.0)
}

func TestRunnerTerminateStopsUpdates(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{}
	r := newTestRunner(t, smallGraph(t), venue.Point{X: 0, Y: 40}, clk, rec)
	require.NoError(t, r.Start())

	// the tick races Terminate: it either moved the entity once or was
	// dropped by the liveness check
	clk.tick <- clk.Now()
	r.Terminate()
	n := rec.count(EventPositionUpdate)
	assert.LessOrEqual(t, n, 1)

	select {
	case clk.tick <- clk.Now():
		t.Fatal("tick accepted after terminate")
	case <-time.After(20 * time.Millisecond):
	}

	assert.Equal(t, n, rec.count(EventPositionUpdate))
	_, err := r.Status()
	assert.ErrorIs(t, err, ErrSessionTerminated)
	assert.ErrorIs(t, r.TriggerSOS(), ErrSessionTerminated)
	assert.ErrorIs(t, r.EvaluateCongestion(true), ErrSessionTerminated)

	select {
	case <-r.Done():
	default:
		t.Fatal("runner goroutine still alive")
	}

	r.Terminate()
}

func TestRunnerTickerFailureSurfacesError(t *testing.T) {
	clk := newFakeClock()
	clk.tickerErr = ErrSchedulerUnavailable
	rec := &recorder{}
	r := newTestRunner(t, smallGraph(t), venue.Point{X: 0, Y: 40}, clk, rec)

	require.NoError(t, r.Start())

	// Status runs on the loop after the ticker sync
	st, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st.State)
	assert.True(t, st.Alive)

	evt, ok := rec.last(EventSessionError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeScheduler, evt.(SessionError).Code)
}

func TestRunnerRealClockRejectsZeroInterval(t *testing.T) {
	rec := &recorder{}
	s := newTestSession(smallGraph(t), "gate-a", nil, rec)
	r := NewRunner(s, RealClock(), 0, nil)
	defer r.Terminate()

	require.NoError(t, r.Start())

	assert.Eventually(t, func() bool {
		return rec.count(EventSessionError) == 1
	}, time.Second, 5*time.Millisecond)
}

func TestRunnerInsightExpiry(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{}
	r := newTestRunner(t, smallGraph(t), venue.Point{X: 0, Y: 60}, clk, rec)
	require.NoError(t, r.Start())

	clk.tick <- clk.Now()
	waitFor(t, rec, EventProximityInsight, 1)

	insight, ok := rec.last(EventProximityInsight)
	require.True(t, ok)
	assert.Equal(t, "heritage-1", insight.(ProximityInsight).WaypointID)
	require.Eventually(t, func() bool { return len(clk.timersArmed()) == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, []time.Duration{8 * time.Second}, clk.timersArmed())

	clk.Advance(8 * time.Second)
	clk.fire <- clk.Now()
	waitFor(t, rec, EventInsightCleared, 1)

	cleared, ok := rec.last(EventInsightCleared)
	require.True(t, ok)
	assert.Equal(t, ClearExpired, cleared.(InsightCleared).Reason)
	assert.Equal(t, "heritage-1", cleared.(InsightCleared).WaypointID)
}

func TestRunnerDismissInsight(t *testing.T) {
	clk := newFakeClock()
	rec := &recorder{}
	r := newTestRunner(t, smallGraph(t), venue.Point{X: 0, Y: 60}, clk, rec)
	require.NoError(t, r.Start())

	ok, err := r.DismissInsight()
	require.NoError(t, err)
	assert.False(t, ok)

	clk.tick <- clk.Now()
	waitFor(t, rec, EventProximityInsight, 1)
	ok, err = r.DismissInsight()
	require.NoError(t, err)
	assert.True(t, ok)

	cleared, found := rec.last(EventInsightCleared)
	require.True(t, found)
	assert.Equal(t, ClearDismissed, cleared.(InsightCleared).Reason)
}

func TestRunnerRecoversPanics(t *testing.T) {
	clk := newFakeClock()
	var rec recorder
	s := NewSession(smallGraph(t), SessionConfig{
		ID:           "s-panic",
		AssignedGate: "gate-a",
		Position:     &venue.Point{X: 0, Y: 40},
		Params:       DefaultParams(),
		Listener: func(e Event) {
			if _, ok := e.(PositionUpdate); ok {
				panic("renderer exploded")
			}
			rec.listen(e)
		},
	})
	r := NewRunner(s, clk, 100*time.Millisecond, nil)
	defer r.Terminate()

	require.NoError(t, r.Start())
	clk.tick <- clk.Now()
	waitFor(t, &rec, EventSessionError, 1)

	st, err := r.Status()
	require.NoError(t, err)
	assert.Equal(t, StateIdle, st.State)

	evt, ok := rec.last(EventSessionError)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInternal, evt.(SessionError).Code)
}
