package venue

// SpatialIndex answers radius queries over the (immutable) waypoint positions.
type SpatialIndex interface {
	// Within returns the ids of waypoints strictly closer than radius to center.
	Within(center Point, radius float64) []string
}

type linearIndex struct {
	ids       []string
	positions []Point
}

// NewLinearIndex scans every waypoint per query. Venues hold tens of points,
// so this is the default.
func NewLinearIndex(waypoints []Waypoint) SpatialIndex {
	idx := &linearIndex{
		ids:       make([]string, 0, len(waypoints)),
		positions: make([]Point, 0, len(waypoints)),
	}
	for _, w := range waypoints {
		idx.ids = append(idx.ids, w.ID)
		idx.positions = append(idx.positions, w.Position)
	}
	return idx
}

func (l *linearIndex) Within(center Point, radius float64) []string {
	var out []string
	for i, p := range l.positions {
		if center.DistanceTo(p) < radius {
			out = append(out, l.ids[i])
		}
	}
	return out
}
