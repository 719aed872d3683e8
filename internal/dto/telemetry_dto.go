package dto

import "time"

// CongestionReport is the wire form of a congestion snapshot, used by both the
// REST ingest endpoint and the telemetry.congestion bus subject.
type CongestionReport struct {
	Levels    map[string]string `json:"levels" validate:"required,min=1"`
	Timestamp *time.Time        `json:"timestamp,omitempty"`
}

type CongestionResponse struct {
	Accepted bool `json:"accepted"`
	Readings int  `json:"readings"`
}
