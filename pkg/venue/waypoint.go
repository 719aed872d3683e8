package venue

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

var (
	ErrWaypointNotFound  = errors.New("venue: waypoint not found")
	ErrInvalidWaypoint   = errors.New("venue: invalid waypoint")
	ErrInvalidCongestion = errors.New("venue: invalid congestion level")
	ErrMissingRole       = errors.New("venue: critical role not resolvable")
)

// Category classifies a waypoint on the venue map.
type Category string

const (
	CategoryGate      Category = "gate"
	CategoryQueue     Category = "queue"
	CategorySanctum   Category = "sanctum"
	CategoryEmergency Category = "emergency"
	CategoryUtility   Category = "utility"
	CategorySecurity  Category = "security"
	CategoryDonation  Category = "donation"
	CategoryHeritage  Category = "heritage"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryGate, CategoryQueue, CategorySanctum, CategoryEmergency,
		CategoryUtility, CategorySecurity, CategoryDonation, CategoryHeritage:
		return true
	}
	return false
}

// Congestion is the discrete crowding level reported for a waypoint.
type Congestion string

const (
	CongestionLow      Congestion = "low"
	CongestionModerate Congestion = "moderate"
	CongestionHigh     Congestion = "high"
)

func (c Congestion) Valid() bool {
	return c == CongestionLow || c == CongestionModerate || c == CongestionHigh
}

// ParseCongestion accepts any casing of low, moderate or high.
func ParseCongestion(s string) (Congestion, error) {
	c := Congestion(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCongestion, s)
	}
	return c, nil
}

// Point is a position on the venue plane.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

func (p Point) DistanceTo(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Waypoint is a named, located node of the venue graph. Values handed out by
// Graph are copies; congestion is only changed through Graph.ApplyCongestion.
type Waypoint struct {
	ID                  string     `json:"id" yaml:"id"`
	Position            Point      `json:"position" yaml:"position"`
	Label               string     `json:"label" yaml:"label"`
	Category            Category   `json:"category" yaml:"category"`
	Congestion          Congestion `json:"congestion" yaml:"congestion"`
	Description         string     `json:"description,omitempty" yaml:"description,omitempty"`
	InsightText         string     `json:"insight_text,omitempty" yaml:"insight_text,omitempty"`
	CongestionUpdatedAt time.Time  `json:"congestion_updated_at,omitempty" yaml:"-"`
}

func (w Waypoint) validate() error {
	if w.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidWaypoint)
	}
	if !w.Category.Valid() {
		return fmt.Errorf("%w: %s has unknown category %q", ErrInvalidWaypoint, w.ID, w.Category)
	}
	if !w.Congestion.Valid() {
		return fmt.Errorf("%w: %s has congestion %q", ErrInvalidWaypoint, w.ID, w.Congestion)
	}
	return nil
}

// CongestionSnapshot is a batch of telemetry readings. Unknown ids are dropped
// when applied.
type CongestionSnapshot struct {
	Levels    map[string]Congestion `json:"levels"`
	Timestamp time.Time             `json:"timestamp"`
}

// CongestionResult reports what a snapshot did to the graph.
type CongestionResult struct {
	Applied int      `json:"applied"`
	Changed int      `json:"changed"`
	Unknown []string `json:"unknown,omitempty"`
	Invalid []string `json:"invalid,omitempty"`
	// Stale lists readings older than the waypoint's last update.
	Stale []string `json:"stale,omitempty"`
}
