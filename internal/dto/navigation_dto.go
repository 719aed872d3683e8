package dto

import "venue-guide-be/pkg/navigation"

type CreateSessionRequest struct {
	// EntityID defaults to a fresh uuid. Reusing an id replaces that
	// entity's previous session.
	EntityID     string   `json:"entity_id" validate:"omitempty,max=64"`
	AssignedGate string   `json:"assigned_gate" validate:"required,max=64"`
	StartX       *float64 `json:"start_x" validate:"required_with=StartY"`
	StartY       *float64 `json:"start_y" validate:"required_with=StartX"`
}

type SOSRequest struct {
	Action string `json:"action" validate:"required,oneof=activate clear"`
}

const (
	SOSActivate = "activate"
	SOSClear    = "clear"
)

type SessionResponse struct {
	navigation.Status
	AlertID string `json:"alert_id,omitempty"`
}

type DismissInsightResponse struct {
	Dismissed bool `json:"dismissed"`
}

// StreamFrame is one websocket message on a session stream.
type StreamFrame struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
	At   string                 `json:"at"`
}
