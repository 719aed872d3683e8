package navigation

import (
	"time"

	"venue-guide-be/pkg/venue"
)

// Params are the engine constants. DefaultParams matches the reference
// behaviour: 100ms ticks, 2 units per tick, arrival under 5 units,
// 40 unit heritage radius, 8s insights.
type Params struct {
	TickInterval    time.Duration
	StepDistance    float64
	ArrivalEpsilon  float64
	ProximityRadius float64
	InsightTTL      time.Duration
	NoticeTTL       time.Duration
	StartPosition   venue.Point
}

func DefaultParams() Params {
	return Params{
		TickInterval:    100 * time.Millisecond,
		StepDistance:    2,
		ArrivalEpsilon:  5,
		ProximityRadius: 40,
		InsightTTL:      8 * time.Second,
		NoticeTTL:       6 * time.Second,
		StartPosition:   venue.Point{X: 60, Y: 340},
	}
}
