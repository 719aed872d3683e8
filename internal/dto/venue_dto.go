package dto

import "venue-guide-be/pkg/venue"

type VenueResponse struct {
	Name      string           `json:"name"`
	Roles     venue.Roles      `json:"roles"`
	Waypoints []venue.Waypoint `json:"waypoints"`
}

type NearQuery struct {
	X      float64 `query:"x"`
	Y      float64 `query:"y"`
	Radius float64 `query:"radius" validate:"gt=0"`
}

type NearbyWaypoint struct {
	venue.Waypoint
	Distance float64 `json:"distance"`
}

type HeatmapResponse struct {
	Hotspots []venue.Waypoint `json:"hotspots"`
	Count    int              `json:"count"`
}
