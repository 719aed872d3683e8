package navigation

import (
	"time"

	"venue-guide-be/pkg/events"
	"venue-guide-be/pkg/venue"
)

const (
	EventRouteChanged     = "ROUTE_CHANGED"
	EventPositionUpdate   = "POSITION_UPDATE"
	EventProximityInsight = "PROXIMITY_INSIGHT"
	EventInsightCleared   = "INSIGHT_CLEARED"
	EventArrival          = "ARRIVAL"
	EventGuidanceNotice   = "GUIDANCE_NOTICE"
	EventSessionError     = "SESSION_ERROR"
)

// Event is a marker for every record a Session emits. Records are values and
// are never mutated after emission.
type Event interface {
	events.Event
	isEvent()
}

// Listener receives events on the session's own goroutine. It must not block.
type Listener func(Event)

type RouteReason string

const (
	ReasonInitial    RouteReason = "INITIAL"
	ReasonReroute    RouteReason = "REROUTE"
	ReasonSOS        RouteReason = "SOS"
	ReasonSOSCleared RouteReason = "SOS_CLEARED"
)

// RouteChanged carries the newly active route. Fallback is set when a reroute
// found no qualifying alternate gate and kept the assigned one.
type RouteChanged struct {
	SessionID string      `json:"session_id"`
	Route     Route       `json:"route"`
	Reason    RouteReason `json:"reason"`
	Mode      Mode        `json:"mode"`
	Fallback  bool        `json:"fallback,omitempty"`
	At        time.Time   `json:"at"`
}

func (RouteChanged) isEvent()               {}
func (e RouteChanged) EventType() string    { return EventRouteChanged }
func (e RouteChanged) Timestamp() time.Time { return e.At }
func (e RouteChanged) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id": e.SessionID,
		"origin":     e.Route.Origin,
		"waypoints":  e.Route.Waypoints,
		"reason":     string(e.Reason),
		"mode":       string(e.Mode),
		"fallback":   e.Fallback,
	}
}

type PositionUpdate struct {
	SessionID string    `json:"session_id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	At        time.Time `json:"at"`
}

func (PositionUpdate) isEvent()               {}
func (e PositionUpdate) EventType() string    { return EventPositionUpdate }
func (e PositionUpdate) Timestamp() time.Time { return e.At }
func (e PositionUpdate) Payload() map[string]interface{} {
	return map[string]interface{}{"session_id": e.SessionID, "x": e.X, "y": e.Y}
}

// ProximityInsight is shown when the entity comes near a heritage waypoint.
type ProximityInsight struct {
	SessionID  string    `json:"session_id"`
	WaypointID string    `json:"waypoint_id"`
	Label      string    `json:"label"`
	Text       string    `json:"text"`
	ExpiresAt  time.Time `json:"expires_at"`
	At         time.Time `json:"at"`
}

func (ProximityInsight) isEvent()               {}
func (e ProximityInsight) EventType() string    { return EventProximityInsight }
func (e ProximityInsight) Timestamp() time.Time { return e.At }
func (e ProximityInsight) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":  e.SessionID,
		"waypoint_id": e.WaypointID,
		"label":       e.Label,
		"text":        e.Text,
		"expires_at":  e.ExpiresAt,
	}
}

type ClearReason string

const (
	ClearExpired   ClearReason = "expired"
	ClearDismissed ClearReason = "dismissed"
	ClearLeft      ClearReason = "left"
)

// InsightCleared tells renderers to hide the insight for WaypointID.
type InsightCleared struct {
	SessionID  string      `json:"session_id"`
	WaypointID string      `json:"waypoint_id"`
	Reason     ClearReason `json:"reason"`
	At         time.Time   `json:"at"`
}

func (InsightCleared) isEvent()               {}
func (e InsightCleared) EventType() string    { return EventInsightCleared }
func (e InsightCleared) Timestamp() time.Time { return e.At }
func (e InsightCleared) Payload() map[string]interface{} {
	return map[string]interface{}{"session_id": e.SessionID, "waypoint_id": e.WaypointID, "reason": string(e.Reason)}
}

// ArrivalEvent fires once per route when its final waypoint is reached.
type ArrivalEvent struct {
	SessionID  string      `json:"session_id"`
	WaypointID string      `json:"waypoint_id"`
	Position   venue.Point `json:"position"`
	Mode       Mode        `json:"mode"`
	At         time.Time   `json:"at"`
}

func (ArrivalEvent) isEvent()               {}
func (e ArrivalEvent) EventType() string    { return EventArrival }
func (e ArrivalEvent) Timestamp() time.Time { return e.At }
func (e ArrivalEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id":  e.SessionID,
		"waypoint_id": e.WaypointID,
		"position":    e.Position,
		"mode":        string(e.Mode),
	}
}

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
	NoticeSuccess NoticeLevel = "success"
)

// GuidanceNotice is a short human-readable message. ExpiresAt is a display
// hint; the engine arms no timer for it.
type GuidanceNotice struct {
	SessionID string      `json:"session_id"`
	Title     string      `json:"title"`
	Message   string      `json:"message"`
	Level     NoticeLevel `json:"level"`
	ExpiresAt time.Time   `json:"expires_at"`
	At        time.Time   `json:"at"`
}

func (GuidanceNotice) isEvent()               {}
func (e GuidanceNotice) EventType() string    { return EventGuidanceNotice }
func (e GuidanceNotice) Timestamp() time.Time { return e.At }
func (e GuidanceNotice) Payload() map[string]interface{} {
	return map[string]interface{}{
		"session_id": e.SessionID,
		"title":      e.Title,
		"message":    e.Message,
		"level":      string(e.Level),
		"expires_at": e.ExpiresAt,
	}
}

const (
	ErrCodeScheduler = "SCHEDULER_UNAVAILABLE"
	ErrCodeInternal  = "INTERNAL"
)

// SessionError is emitted when a session degrades to IDLE instead of
// silently freezing.
type SessionError struct {
	SessionID string    `json:"session_id"`
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	At        time.Time `json:"at"`
}

func (SessionError) isEvent()               {}
func (e SessionError) EventType() string    { return EventSessionError }
func (e SessionError) Timestamp() time.Time { return e.At }
func (e SessionError) Payload() map[string]interface{} {
	return map[string]interface{}{"session_id": e.SessionID, "code": e.Code, "message": e.Message}
}
