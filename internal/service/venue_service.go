package service

import (
	"context"
	"fmt"

	"venue-guide-be/internal/dto"
	"venue-guide-be/pkg/venue"
)

type IVenueService interface {
	Show(ctx context.Context) *dto.VenueResponse
	Waypoints(ctx context.Context, category string) ([]venue.Waypoint, error)
	Waypoint(ctx context.Context, id string) (*venue.Waypoint, error)
	Near(ctx context.Context, q dto.NearQuery) []dto.NearbyWaypoint
	Heatmap(ctx context.Context) *dto.HeatmapResponse
}

type venueService struct {
	graph *venue.Graph
}

func NewVenueService(graph *venue.Graph) IVenueService {
	return &venueService{graph: graph}
}

func (s *venueService) Show(ctx context.Context) *dto.VenueResponse {
	return &dto.VenueResponse{
		Name:      s.graph.Name(),
		Roles:     s.graph.Roles(),
		Waypoints: s.graph.All(),
	}
}

func (s *venueService) Waypoints(ctx context.Context, category string) ([]venue.Waypoint, error) {
	if category == "" {
		return s.graph.All(), nil
	}
	cat := venue.Category(category)
	if !cat.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", venue.ErrInvalidWaypoint, category)
	}
	return s.graph.Filter(cat), nil
}

func (s *venueService) Waypoint(ctx context.Context, id string) (*venue.Waypoint, error) {
	w, ok := s.graph.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", venue.ErrWaypointNotFound, id)
	}
	return &w, nil
}

func (s *venueService) Near(ctx context.Context, q dto.NearQuery) []dto.NearbyWaypoint {
	center := venue.Point{X: q.X, Y: q.Y}
	found := s.graph.Near(center, q.Radius)
	out := make([]dto.NearbyWaypoint, 0, len(found))
	for _, w := range found {
		out = append(out, dto.NearbyWaypoint{Waypoint: w, Distance: center.DistanceTo(w.Position)})
	}
	return out
}

func (s *venueService) Heatmap(ctx context.Context) *dto.HeatmapResponse {
	hot := s.graph.WithCongestion(venue.CongestionHigh)
	return &dto.HeatmapResponse{Hotspots: hot, Count: len(hot)}
}
