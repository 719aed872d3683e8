package venue

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"venue-guide-be/internal/pkg/logger"
)

// Roles names the waypoints that make up the canonical route skeleton.
type Roles struct {
	Security string `json:"security" yaml:"security"`
	Waiting  string `json:"waiting" yaml:"waiting"`
	Sanctum  string `json:"sanctum" yaml:"sanctum"`
	Exit     string `json:"exit" yaml:"exit"`
}

// Definition is the static description a Graph is built from.
type Definition struct {
	Name      string     `json:"name" yaml:"name"`
	Waypoints []Waypoint `json:"waypoints" yaml:"waypoints"`
	Roles     Roles      `json:"roles" yaml:"roles"`
}

type Option func(*Graph)

func WithLogger(l logger.ILogger) Option {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithSpatialIndex replaces the default linear scan used by Near.
func WithSpatialIndex(build func([]Waypoint) SpatialIndex) Option {
	return func(g *Graph) {
		g.buildIndex = build
	}
}

// Graph is the venue registry. Topology and positions are immutable after
// New; congestion has a single writer (ApplyCongestion) and many readers.
type Graph struct {
	name      string
	order     []string
	waypoints map[string]*Waypoint
	roles     Roles

	mu sync.RWMutex

	index      SpatialIndex
	buildIndex func([]Waypoint) SpatialIndex
	logger     logger.ILogger
}

func New(def Definition, opts ...Option) (*Graph, error) {
	g := &Graph{
		name:       def.Name,
		waypoints:  make(map[string]*Waypoint, len(def.Waypoints)),
		buildIndex: NewLinearIndex,
		logger:     logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(g)
	}

	for _, w := range def.Waypoints {
		if err := w.validate(); err != nil {
			return nil, err
		}
		if _, dup := g.waypoints[w.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate id %s", ErrInvalidWaypoint, w.ID)
		}
		wp := w
		g.waypoints[w.ID] = &wp
		g.order = append(g.order, w.ID)
	}

	roles, err := g.resolveRoles(def.Roles)
	if err != nil {
		return nil, err
	}
	g.roles = roles
	g.index = g.buildIndex(g.All())

	return g, nil
}

func (g *Graph) resolveRoles(declared Roles) (Roles, error) {
	var err error
	r := declared
	if r.Security, err = g.resolveRole("security", r.Security, CategorySecurity); err != nil {
		return Roles{}, err
	}
	if r.Waiting, err = g.resolveRole("waiting", r.Waiting, CategoryQueue); err != nil {
		return Roles{}, err
	}
	if r.Sanctum, err = g.resolveRole("sanctum", r.Sanctum, CategorySanctum); err != nil {
		return Roles{}, err
	}
	if r.Exit == "" {
		if _, ok := g.waypoints["exit"]; ok {
			r.Exit = "exit"
		}
	}
	if r.Exit, err = g.resolveRole("exit", r.Exit, CategoryGate); err != nil {
		return Roles{}, err
	}
	return r, nil
}

// resolveRole checks a declared role id, or derives it when exactly one
// waypoint of the category exists.
func (g *Graph) resolveRole(role, id string, cat Category) (string, error) {
	if id != "" {
		w, ok := g.waypoints[id]
		if !ok {
			return "", fmt.Errorf("%w: %s role references unknown waypoint %s", ErrMissingRole, role, id)
		}
		if w.Category != cat {
			return "", fmt.Errorf("%w: %s role waypoint %s is %s, want %s", ErrMissingRole, role, id, w.Category, cat)
		}
		return id, nil
	}
	var found []string
	for _, wid := range g.order {
		if g.waypoints[wid].Category == cat {
			found = append(found, wid)
		}
	}
	if len(found) != 1 {
		return "", fmt.Errorf("%w: %s role needs exactly one %s waypoint, found %d", ErrMissingRole, role, cat, len(found))
	}
	return found[0], nil
}

func (g *Graph) Name() string { return g.name }

func (g *Graph) Roles() Roles { return g.roles }

func (g *Graph) Get(id string) (Waypoint, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	w, ok := g.waypoints[id]
	if !ok {
		return Waypoint{}, false
	}
	return *w, true
}

// All returns every waypoint in registry (definition) order.
func (g *Graph) All() []Waypoint {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Waypoint, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, *g.waypoints[id])
	}
	return out
}

// Filter returns the waypoints of one category in registry order.
func (g *Graph) Filter(cat Category) []Waypoint {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Waypoint
	for _, id := range g.order {
		if w := g.waypoints[id]; w.Category == cat {
			out = append(out, *w)
		}
	}
	return out
}

// WithCongestion returns the waypoints currently at the given level.
func (g *Graph) WithCongestion(level Congestion) []Waypoint {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []Waypoint
	for _, id := range g.order {
		if w := g.waypoints[id]; w.Congestion == level {
			out = append(out, *w)
		}
	}
	return out
}

// Near returns waypoints strictly closer than radius to p, nearest first.
// Equal distances are ordered by id.
func (g *Graph) Near(p Point, radius float64) []Waypoint {
	ids := g.index.Within(p, radius)

	g.mu.RLock()
	out := make([]Waypoint, 0, len(ids))
	for _, id := range ids {
		if w, ok := g.waypoints[id]; ok {
			out = append(out, *w)
		}
	}
	g.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		di, dj := p.DistanceTo(out[i].Position), p.DistanceTo(out[j].Position)
		if di != dj {
			return di < dj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ApplyCongestion writes a telemetry snapshot in place. Unknown ids and
// invalid levels are dropped and logged; the rest of the batch still applies.
// A reading older than the waypoint's last update is stale and skipped, so the
// latest reading wins whatever order snapshots arrive in.
func (g *Graph) ApplyCongestion(snap CongestionSnapshot) CongestionResult {
	at := snap.Timestamp
	if at.IsZero() {
		at = time.Now()
	}

	ids := make([]string, 0, len(snap.Levels))
	for id := range snap.Levels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var res CongestionResult
	g.mu.Lock()
	for _, id := range ids {
		level := snap.Levels[id]
		w, ok := g.waypoints[id]
		if !ok {
			res.Unknown = append(res.Unknown, id)
			continue
		}
		if !level.Valid() {
			res.Invalid = append(res.Invalid, id)
			continue
		}
		if at.Before(w.CongestionUpdatedAt) {
			res.Stale = append(res.Stale, id)
			continue
		}
		res.Applied++
		if w.Congestion != level {
			w.Congestion = level
			res.Changed++
		}
		w.CongestionUpdatedAt = at
	}
	g.mu.Unlock()

	if len(res.Unknown) > 0 {
		g.logger.Warn("VenueGraph", "Dropped congestion for unknown waypoints", map[string]interface{}{"ids": res.Unknown})
	}
	if len(res.Invalid) > 0 {
		g.logger.Warn("VenueGraph", "Dropped invalid congestion levels", map[string]interface{}{"ids": res.Invalid})
	}
	if len(res.Stale) > 0 {
		g.logger.Debug("VenueGraph", "Skipped stale congestion readings", map[string]interface{}{
			"ids":       res.Stale,
			"timestamp": at,
		})
	}
	return res
}
