package navigation

import (
	"time"

	"venue-guide-be/pkg/venue"
)

// ProximityState is what a session currently knows about nearby heritage
// points. InRadius drives edge detection; Shown is the visible insight.
type ProximityState struct {
	InRadius  string     `json:"in_radius,omitempty"`
	Shown     string     `json:"shown,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// ProximityDetector emits an insight only when the nearest heritage point in
// radius changes. Staying near the same point fires once; leaving and coming
// back fires again.
type ProximityDetector struct {
	Radius float64
	TTL    time.Duration

	state ProximityState
}

func NewProximityDetector(radius float64, ttl time.Duration) *ProximityDetector {
	return &ProximityDetector{Radius: radius, TTL: ttl}
}

func (d *ProximityDetector) State() ProximityState { return d.state }

// Observe evaluates a new position. It returns the insight to emit (if any)
// and the id of an insight that must be hidden because the entity left its
// radius ("" if none).
func (d *ProximityDetector) Observe(g *venue.Graph, pos venue.Point, now time.Time) (*ProximityInsight, string) {
	nearest, ok := nearestHeritage(g, pos, d.Radius)
	if !ok {
		left := ""
		if d.state.Shown != "" {
			left = d.state.Shown
		}
		d.state = ProximityState{}
		return nil, left
	}

	if nearest.ID == d.state.InRadius {
		return nil, ""
	}

	expiresAt := now.Add(d.TTL)
	d.state = ProximityState{
		InRadius:  nearest.ID,
		Shown:     nearest.ID,
		ExpiresAt: &expiresAt,
	}
	text := nearest.InsightText
	if text == "" {
		text = nearest.Description
	}
	return &ProximityInsight{
		WaypointID: nearest.ID,
		Label:      nearest.Label,
		Text:       text,
		ExpiresAt:  expiresAt,
		At:         now,
	}, ""
}

// Expire hides the shown insight if its deadline has passed.
func (d *ProximityDetector) Expire(now time.Time) (string, bool) {
	if d.state.Shown == "" || now.Before(*d.state.ExpiresAt) {
		return "", false
	}
	return d.clearShown(), true
}

// Dismiss hides the shown insight early.
func (d *ProximityDetector) Dismiss() (string, bool) {
	if d.state.Shown == "" {
		return "", false
	}
	return d.clearShown(), true
}

// Deadline is the pending auto-expire time, if an insight is shown.
func (d *ProximityDetector) Deadline() (time.Time, bool) {
	if d.state.Shown == "" {
		return time.Time{}, false
	}
	return *d.state.ExpiresAt, true
}

func (d *ProximityDetector) Reset() { d.state = ProximityState{} }

func (d *ProximityDetector) clearShown() string {
	id := d.state.Shown
	d.state.Shown = ""
	d.state.ExpiresAt = nil
	return id
}

func nearestHeritage(g *venue.Graph, pos venue.Point, radius float64) (venue.Waypoint, bool) {
	// Near is already ordered nearest first.
	for _, w := range g.Near(pos, radius) {
		if w.Category == venue.CategoryHeritage {
			return w, true
		}
	}
	return venue.Waypoint{}, false
}
