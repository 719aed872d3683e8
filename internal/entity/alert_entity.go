package entity

import (
	"time"

	"venue-guide-be/pkg/venue"

	"github.com/google/uuid"
)

type AlertStatus string

const (
	AlertActive   AlertStatus = "ACTIVE"
	AlertEnRoute  AlertStatus = "EN_ROUTE"
	AlertResolved AlertStatus = "RESOLVED"
)

// EmergencyAlert is raised when a session triggers SOS and worked by
// responders until resolved.
type EmergencyAlert struct {
	Id        uuid.UUID   `json:"id"`
	SessionId string      `json:"session_id"`
	EntityId  string      `json:"entity_id"`
	Location  venue.Point `json:"location"`
	Status    AlertStatus `json:"status"`
	RaisedAt  time.Time   `json:"raised_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// CanTransition allows ACTIVE -> EN_ROUTE -> RESOLVED, and ACTIVE -> RESOLVED
// when the entity clears SOS itself.
func (a *EmergencyAlert) CanTransition(to AlertStatus) bool {
	switch a.Status {
	case AlertActive:
		return to == AlertEnRoute || to == AlertResolved
	case AlertEnRoute:
		return to == AlertResolved
	}
	return false
}

func (a *EmergencyAlert) IsOpen() bool {
	return a.Status != AlertResolved
}
