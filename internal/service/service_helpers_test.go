package service

import (
	"sync"
	"testing"
	"time"

	"venue-guide-be/pkg/events"
	"venue-guide-be/pkg/navigation"
	"venue-guide-be/pkg/venue"

	"github.com/stretchr/testify/require"
)

func kashiGraph(t *testing.T) *venue.Graph {
	t.Helper()
	g, err := venue.New(venue.KashiDefinition())
	require.NoError(t, err)
	return g
}

// slowParams never ticks during a test, so sessions hold their position.
func slowParams() navigation.Params {
	p := navigation.DefaultParams()
	p.TickInterval = time.Hour
	return p
}

type recordingDispatcher struct {
	mu        sync.Mutex
	session   map[string][]navigation.Event
	forwarded []events.Event
	closed    []string
}

func newRecordingDispatcher() *recordingDispatcher {
	return &recordingDispatcher{session: map[string][]navigation.Event{}}
}

func (d *recordingDispatcher) ListenerFor(sessionID string) navigation.Listener {
	return func(e navigation.Event) {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.session[sessionID] = append(d.session[sessionID], e)
	}
}

func (d *recordingDispatcher) Forward(e events.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.forwarded = append(d.forwarded, e)
}

func (d *recordingDispatcher) CloseSession(sessionID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = append(d.closed, sessionID)
}

func (d *recordingDispatcher) forwardedTypes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.forwarded))
	for _, e := range d.forwarded {
		out = append(out, e.EventType())
	}
	return out
}

func (d *recordingDispatcher) routeReasons(sessionID string) []navigation.RouteReason {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []navigation.RouteReason
	for _, e := range d.session[sessionID] {
		if rc, ok := e.(navigation.RouteChanged); ok {
			out = append(out, rc.Reason)
		}
	}
	return out
}

func (d *recordingDispatcher) closedSessions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.closed...)
}
