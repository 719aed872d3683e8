package navigation

import (
	"math"
	"sort"

	"venue-guide-be/pkg/venue"
)

type Mode string

const (
	ModeNormal    Mode = "NORMAL"
	ModeEmergency Mode = "EMERGENCY"
)

// Route is the active path: the position it was computed from followed by the
// waypoints still to visit, in order.
type Route struct {
	Origin    venue.Point `json:"origin"`
	Waypoints []string    `json:"waypoints"`
}

// Len counts the origin as a stop, matching how routes are rendered.
func (r Route) Len() int { return len(r.Waypoints) + 1 }

// PlanInput is everything the planner needs from a session.
type PlanInput struct {
	Position     venue.Point
	AssignedGate string
	Mode         Mode
	Rerouted     bool
}

// Plan is a computed route. Fallback reports that a reroute kept the assigned
// gate because no alternate qualified.
type Plan struct {
	Route    Route
	Fallback bool
}

// Planner builds routes over the fixed venue skeleton:
//
//	NORMAL     origin, gate, security, waiting, sanctum
//	REROUTED   origin, alternate gate, waiting, sanctum
//	EMERGENCY  origin, nearest emergency point, exit
type Planner struct{}

func (p Planner) Compute(g *venue.Graph, in PlanInput) Plan {
	roles := g.Roles()

	if in.Mode == ModeEmergency {
		wps := make([]string, 0, 2)
		if sos, ok := p.NearestEmergencyPoint(g, in.Position); ok {
			wps = append(wps, sos)
		}
		wps = append(wps, roles.Exit)
		return Plan{Route: Route{Origin: in.Position, Waypoints: wps}}
	}

	if in.Rerouted {
		gate, ok := p.AlternateGate(g)
		if !ok {
			gate = in.AssignedGate
		}
		return Plan{
			Route:    Route{Origin: in.Position, Waypoints: []string{gate, roles.Waiting, roles.Sanctum}},
			Fallback: !ok,
		}
	}

	return Plan{Route: Route{
		Origin:    in.Position,
		Waypoints: []string{in.AssignedGate, roles.Security, roles.Waiting, roles.Sanctum},
	}}
}

// AlternateGate picks the lexically smallest low-congestion gate that is not
// the exit.
func (Planner) AlternateGate(g *venue.Graph) (string, bool) {
	exit := g.Roles().Exit
	var ids []string
	for _, w := range g.Filter(venue.CategoryGate) {
		if w.Congestion == venue.CongestionLow && w.ID != exit {
			ids = append(ids, w.ID)
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)
	return ids[0], true
}

// NearestEmergencyPoint returns the emergency waypoint closest to pos, ties
// broken by id.
func (Planner) NearestEmergencyPoint(g *venue.Graph, pos venue.Point) (string, bool) {
	best, bestDist := "", math.Inf(1)
	for _, w := range g.Filter(venue.CategoryEmergency) {
		d := pos.DistanceTo(w.Position)
		if d < bestDist || (d == bestDist && w.ID < best) {
			best, bestDist = w.ID, d
		}
	}
	return best, best != ""
}

// ResolveGate returns id when it names a gate, otherwise the first gate in
// registry order. The bool reports whether the fallback was used.
func (Planner) ResolveGate(g *venue.Graph, id string) (string, bool) {
	if w, ok := g.Get(id); ok && w.Category == venue.CategoryGate {
		return id, false
	}
	gates := g.Filter(venue.CategoryGate)
	if len(gates) == 0 {
		return "", true
	}
	return gates[0].ID, true
}
