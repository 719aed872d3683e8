package events

import (
	"fmt"
	"time"
)

// Event is the contract every record leaving the engine satisfies, so that
// one publisher can put any of them on the bus.
type Event interface {
	// EventType returns the unique code for this event (e.g., "ROUTE_CHANGED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is used for events that only exist as a type code plus a map,
// such as messages reconstructed from the bus.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// Subject builds the bus subject for an event under a stream prefix,
// e.g. Subject("navigation", evt) -> "navigation.ROUTE_CHANGED".
func Subject(prefix string, evt Event) string {
	return fmt.Sprintf("%s.%s", prefix, evt.EventType())
}
