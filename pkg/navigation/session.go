package navigation

import (
	"errors"
	"fmt"
	"time"

	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/pkg/venue"
)

var (
	ErrSessionTerminated    = errors.New("navigation: session terminated")
	ErrAlreadyStarted       = errors.New("navigation: session already started")
	ErrSchedulerUnavailable = errors.New("navigation: scheduler unavailable")
)

type State string

const (
	StateIdle       State = "IDLE"
	StateNavigating State = "NAVIGATING"
	StateArrived    State = "ARRIVED"
)

type SessionConfig struct {
	ID           string
	EntityID     string
	AssignedGate string
	// Position overrides Params.StartPosition when set.
	Position *venue.Point
	Params   Params
	Listener Listener
	Logger   logger.ILogger
}

// Session is the per-entity state machine. It is not safe for concurrent use:
// a Runner owns it and calls it from a single goroutine.
type Session struct {
	id       string
	entityID string
	graph    *venue.Graph
	params   Params
	planner  Planner
	monitor  CongestionMonitor
	prox     *ProximityDetector
	listener Listener
	logger   logger.ILogger

	state        State
	mode         Mode
	rerouted     bool
	assignedGate string
	position     venue.Point
	route        Route
	routeIndex   int
	alive        bool

	// set when a reroute kept the assigned gate; retried on the next
	// snapshot that changes a level
	pendingAlternate bool
	idleAtDest       bool
}

// Status is a read-only view of a session.
type Status struct {
	SessionID    string         `json:"session_id"`
	EntityID     string         `json:"entity_id"`
	State        State          `json:"state"`
	Mode         Mode           `json:"mode"`
	Rerouted     bool           `json:"rerouted"`
	AssignedGate string         `json:"assigned_gate"`
	Position     venue.Point    `json:"position"`
	Route        Route          `json:"route"`
	RouteIndex   int            `json:"route_index"`
	Target       string         `json:"target,omitempty"`
	Proximity    ProximityState `json:"proximity"`
	Alive        bool           `json:"alive"`
}

func NewSession(g *venue.Graph, cfg SessionConfig) *Session {
	s := &Session{
		id:       cfg.ID,
		entityID: cfg.EntityID,
		graph:    g,
		params:   cfg.Params,
		prox:     NewProximityDetector(cfg.Params.ProximityRadius, cfg.Params.InsightTTL),
		listener: cfg.Listener,
		logger:   cfg.Logger,
		state:    StateIdle,
		mode:     ModeNormal,
		position: cfg.Params.StartPosition,
		alive:    true,
	}
	if s.logger == nil {
		s.logger = logger.NewNopLogger()
	}
	if cfg.Position != nil {
		s.position = *cfg.Position
	}

	gate, fellBack := s.planner.ResolveGate(g, cfg.AssignedGate)
	if fellBack {
		s.logger.Warn("Session", "Unknown assigned gate, using first gate in registry", map[string]interface{}{
			"session_id": s.id,
			"requested":  cfg.AssignedGate,
			"resolved":   gate,
		})
	}
	s.assignedGate = gate
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Status() Status {
	st := Status{
		SessionID:    s.id,
		EntityID:     s.entityID,
		State:        s.state,
		Mode:         s.mode,
		Rerouted:     s.rerouted,
		AssignedGate: s.assignedGate,
		Position:     s.position,
		Route:        Route{Origin: s.route.Origin, Waypoints: append([]string(nil), s.route.Waypoints...)},
		RouteIndex:   s.routeIndex,
		Proximity:    s.prox.State(),
		Alive:        s.alive,
	}
	if s.routeIndex < len(s.route.Waypoints) {
		st.Target = s.route.Waypoints[s.routeIndex]
	}
	return st
}

// Start moves IDLE -> NAVIGATING and computes the initial route. The
// congestion monitor runs right after, so an already congested gate reroutes
// immediately.
func (s *Session) Start(now time.Time) error {
	if !s.alive {
		return ErrSessionTerminated
	}
	if s.state != StateIdle {
		return ErrAlreadyStarted
	}
	s.state = StateNavigating
	s.recompute(ReasonInitial, now)

	gateLabel := s.assignedGate
	if w, ok := s.graph.Get(s.assignedGate); ok {
		gateLabel = w.Label
	}
	s.notice("Gate Assignment", fmt.Sprintf("You are assigned to %s.", gateLabel), NoticeSuccess, now)

	s.EvaluateCongestion(false, now)
	return nil
}

// Tick advances the entity one step along the active route.
func (s *Session) Tick(now time.Time) {
	if !s.alive || s.state != StateNavigating {
		return
	}
	if s.routeIndex >= len(s.route.Waypoints) {
		return
	}

	targetID := s.route.Waypoints[s.routeIndex]
	target, ok := s.graph.Get(targetID)
	if !ok {
		s.logger.Error("Session", "Route references unknown waypoint, skipping", map[string]interface{}{
			"session_id": s.id,
			"waypoint":   targetID,
		})
		s.routeIndex++
		return
	}

	res := Step(s.position, target.Position, s.params.StepDistance, s.params.ArrivalEpsilon)
	if res.Arrived {
		s.routeIndex++
		if s.routeIndex == len(s.route.Waypoints) {
			s.arrive(targetID, now)
		}
		return
	}

	s.position = res.Position
	s.emit(PositionUpdate{SessionID: s.id, X: s.position.X, Y: s.position.Y, At: now})
	s.observeProximity(now)
}

func (s *Session) arrive(waypointID string, now time.Time) {
	if s.mode == ModeEmergency {
		if s.idleAtDest {
			return
		}
		// ticker keeps running until SOS is cleared or the session ends
		s.idleAtDest = true
	} else {
		s.state = StateArrived
	}
	s.emit(ArrivalEvent{
		SessionID:  s.id,
		WaypointID: waypointID,
		Position:   s.position,
		Mode:       s.mode,
		At:         now,
	})
}

func (s *Session) observeProximity(now time.Time) {
	insight, left := s.prox.Observe(s.graph, s.position, now)
	if left != "" {
		s.emit(InsightCleared{SessionID: s.id, WaypointID: left, Reason: ClearLeft, At: now})
	}
	if insight != nil {
		insight.SessionID = s.id
		s.emit(*insight)
	}
}

// OnCongestion applies a snapshot to the graph and evaluates the monitor.
// Callers that share one graph across sessions should apply once and call
// EvaluateCongestion per session instead.
func (s *Session) OnCongestion(snap venue.CongestionSnapshot, now time.Time) venue.CongestionResult {
	res := s.graph.ApplyCongestion(snap)
	s.EvaluateCongestion(res.Changed > 0, now)
	return res
}

// EvaluateCongestion runs the one-shot reroute policy. distinct reports that
// the triggering snapshot changed at least one level; only such snapshots
// retry a reroute that fell back to the assigned gate.
func (s *Session) EvaluateCongestion(distinct bool, now time.Time) {
	if !s.alive || s.state != StateNavigating {
		return
	}

	if s.monitor.Evaluate(s.graph, s.assignedGate, s.rerouted) == DecisionTrigger {
		s.rerouted = true
		s.logger.Info("Session", "Congestion threshold crossed, rerouting", map[string]interface{}{
			"session_id": s.id,
			"gate":       s.assignedGate,
			"mode":       s.mode,
		})
		if s.mode == ModeEmergency {
			return
		}
		s.recompute(ReasonReroute, now)
		s.notice("Congestion Detected", "Rerouting to optimal path.", NoticeInfo, now)
		return
	}

	if s.rerouted && s.pendingAlternate && distinct && s.mode == ModeNormal {
		if _, ok := s.planner.AlternateGate(s.graph); ok {
			s.recompute(ReasonReroute, now)
		}
	}
}

// TriggerSOS switches to the emergency route from any state.
func (s *Session) TriggerSOS(now time.Time) error {
	if !s.alive {
		return ErrSessionTerminated
	}
	// a session degraded while in EMERGENCY re-enters the emergency route
	if s.mode == ModeEmergency && s.state == StateNavigating {
		return nil
	}
	s.mode = ModeEmergency
	s.state = StateNavigating
	s.recompute(ReasonSOS, now)
	s.notice("SOS Active", "Emergency teams notified. Follow the red path.", NoticeWarning, now)
	return nil
}

// ClearSOS returns to normal guidance from the current position, keeping any
// earlier reroute.
func (s *Session) ClearSOS(now time.Time) error {
	if !s.alive {
		return ErrSessionTerminated
	}
	if s.mode != ModeEmergency {
		return nil
	}
	s.mode = ModeNormal
	s.state = StateNavigating
	s.recompute(ReasonSOSCleared, now)
	return nil
}

func (s *Session) DismissInsight(now time.Time) bool {
	if !s.alive {
		return false
	}
	id, ok := s.prox.Dismiss()
	if ok {
		s.emit(InsightCleared{SessionID: s.id, WaypointID: id, Reason: ClearDismissed, At: now})
	}
	return ok
}

func (s *Session) ExpireInsight(now time.Time) bool {
	if !s.alive {
		return false
	}
	id, ok := s.prox.Expire(now)
	if ok {
		s.emit(InsightCleared{SessionID: s.id, WaypointID: id, Reason: ClearExpired, At: now})
	}
	return ok
}

// Terminate returns the session to IDLE for good. Nothing is emitted after it.
func (s *Session) Terminate() {
	if !s.alive {
		return
	}
	s.alive = false
	s.state = StateIdle
	s.prox.Reset()
	s.logger.Info("Session", "Session terminated", map[string]interface{}{"session_id": s.id})
}

// Fail degrades the session to IDLE and surfaces the fault as an event.
func (s *Session) Fail(code string, err error, now time.Time) {
	if !s.alive {
		return
	}
	s.state = StateIdle
	s.prox.Reset()
	s.logger.Error("Session", "Session degraded to IDLE", map[string]interface{}{
		"session_id": s.id,
		"code":       code,
		"error":      err.Error(),
	})
	s.emit(SessionError{SessionID: s.id, Code: code, Message: err.Error(), At: now})
}

// WantsTicker reports whether the movement ticker should be running.
func (s *Session) WantsTicker() bool {
	return s.alive && s.state == StateNavigating
}

// InsightDeadline is when the shown insight auto-expires.
func (s *Session) InsightDeadline() (time.Time, bool) {
	if !s.alive {
		return time.Time{}, false
	}
	return s.prox.Deadline()
}

func (s *Session) recompute(reason RouteReason, now time.Time) {
	plan := s.planner.Compute(s.graph, PlanInput{
		Position:     s.position,
		AssignedGate: s.assignedGate,
		Mode:         s.mode,
		Rerouted:     s.rerouted,
	})
	s.route = plan.Route
	s.routeIndex = 0
	s.idleAtDest = false
	s.pendingAlternate = plan.Fallback

	if plan.Fallback {
		s.logger.Warn("Planner", "No alternate gate qualifies, keeping assigned gate", map[string]interface{}{
			"session_id": s.id,
			"gate":       s.assignedGate,
		})
	}

	s.emit(RouteChanged{
		SessionID: s.id,
		Route:     Route{Origin: plan.Route.Origin, Waypoints: append([]string(nil), plan.Route.Waypoints...)},
		Reason:    reason,
		Mode:      s.mode,
		Fallback:  plan.Fallback,
		At:        now,
	})
}

func (s *Session) notice(title, message string, level NoticeLevel, now time.Time) {
	s.emit(GuidanceNotice{
		SessionID: s.id,
		Title:     title,
		Message:   message,
		Level:     level,
		ExpiresAt: now.Add(s.params.NoticeTTL),
		At:        now,
	})
}

func (s *Session) emit(e Event) {
	if !s.alive || s.listener == nil {
		return
	}
	s.listener(e)
}
