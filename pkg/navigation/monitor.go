package navigation

import "venue-guide-be/pkg/venue"

type RerouteDecision int

const (
	DecisionNone RerouteDecision = iota
	DecisionTrigger
)

func (d RerouteDecision) String() string {
	if d == DecisionTrigger {
		return "TRIGGER"
	}
	return "NONE"
}

// CongestionMonitor decides whether a session should reroute. The decision is
// one-shot: once a session is rerouted it never triggers again, even if the
// congestion dips and returns.
type CongestionMonitor struct{}

func (CongestionMonitor) Evaluate(g *venue.Graph, assignedGate string, rerouted bool) RerouteDecision {
	if rerouted {
		return DecisionNone
	}
	if isHigh(g, assignedGate) || isHigh(g, g.Roles().Security) {
		return DecisionTrigger
	}
	return DecisionNone
}

func isHigh(g *venue.Graph, id string) bool {
	w, ok := g.Get(id)
	return ok && w.Congestion == venue.CongestionHigh
}
