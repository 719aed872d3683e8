package navigation

import "venue-guide-be/pkg/venue"

// StepResult is the outcome of one movement tick toward a target.
type StepResult struct {
	Position venue.Point
	Arrived  bool
}

// Step moves pos by at most step units toward target. A position already
// closer than epsilon counts as arrived and does not move.
func Step(pos, target venue.Point, step, epsilon float64) StepResult {
	dist := pos.DistanceTo(target)
	if dist < epsilon {
		return StepResult{Position: pos, Arrived: true}
	}
	// Never overshoot when the step is configured wider than epsilon.
	if dist <= step {
		return StepResult{Position: target}
	}
	dx := (target.X - pos.X) / dist
	dy := (target.Y - pos.Y) / dist
	return StepResult{Position: venue.Point{X: pos.X + dx*step, Y: pos.Y + dy*step}}
}
