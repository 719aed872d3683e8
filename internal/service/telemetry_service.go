package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"venue-guide-be/internal/dto"
	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/pkg/events"
	"venue-guide-be/pkg/navigation"
	"venue-guide-be/pkg/venue"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

const CongestionTopic = "telemetry.congestion"

// NewTelemetryBus returns the in-process queue congestion reports travel on.
// Publish returns only once the consumer has applied the report, so reports
// from one producer are applied in the order they were sent.
func NewTelemetryBus(log watermill.LoggerAdapter) *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            256,
		BlockPublishUntilSubscriberAck: true,
	}, log)
}

// SessionRegistry is the view of live sessions the telemetry fan-out needs.
type SessionRegistry interface {
	All() []*navigation.Runner
}

type ITelemetryService interface {
	// Ingest hands a congestion report to the consumer.
	Ingest(ctx context.Context, report dto.CongestionReport) error
	// HandleBusEvent adapts telemetry arriving on NATS to Ingest.
	HandleBusEvent(ctx context.Context, event events.Event) error
	Consume(ctx context.Context) error
	// Apply writes a snapshot to the graph once and re-evaluates every session.
	Apply(snap venue.CongestionSnapshot) venue.CongestionResult
}

type telemetryService struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	graph      *venue.Graph
	sessions   SessionRegistry
	logger     logger.ILogger
}

func NewTelemetryService(
	publisher message.Publisher,
	subscriber message.Subscriber,
	graph *venue.Graph,
	sessions SessionRegistry,
	log logger.ILogger,
) ITelemetryService {
	return &telemetryService{
		publisher:  publisher,
		subscriber: subscriber,
		graph:      graph,
		sessions:   sessions,
		logger:     log,
	}
}

func (s *telemetryService) Ingest(ctx context.Context, report dto.CongestionReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal congestion report: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.SetContext(ctx)
	if err := s.publisher.Publish(CongestionTopic, msg); err != nil {
		return fmt.Errorf("publish congestion report: %w", err)
	}
	return nil
}

func (s *telemetryService) HandleBusEvent(ctx context.Context, event events.Event) error {
	// the bus payload has the same shape as the REST body
	raw, err := json.Marshal(event.Payload())
	if err != nil {
		return err
	}
	var report dto.CongestionReport
	if err := json.Unmarshal(raw, &report); err != nil {
		s.logger.Warn("Telemetry", "Dropping malformed bus telemetry", map[string]interface{}{"error": err.Error()})
		return nil
	}
	if report.Timestamp == nil {
		ts := event.Timestamp()
		report.Timestamp = &ts
	}
	return s.Ingest(ctx, report)
}

func (s *telemetryService) Consume(ctx context.Context) error {
	messages, err := s.subscriber.Subscribe(ctx, CongestionTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(msg)
		}
	}()
	return nil
}

func (s *telemetryService) processMessage(msg *message.Message) {
	var report dto.CongestionReport
	if err := json.Unmarshal(msg.Payload, &report); err != nil {
		s.logger.Error("Telemetry", "Failed to unmarshal congestion report", map[string]interface{}{"error": err.Error()})
		msg.Ack() // retrying cannot fix it
		return
	}

	s.Apply(SnapshotFromReport(report))
	msg.Ack()
}

func (s *telemetryService) Apply(snap venue.CongestionSnapshot) venue.CongestionResult {
	res := s.graph.ApplyCongestion(snap)
	distinct := res.Changed > 0

	notified := 0
	for _, r := range s.sessions.All() {
		if err := r.EvaluateCongestion(distinct); err != nil {
			if !errors.Is(err, navigation.ErrSessionTerminated) {
				s.logger.Warn("Telemetry", "Session evaluation failed", map[string]interface{}{
					"session_id": r.SessionID(),
					"error":      err.Error(),
				})
			}
			continue
		}
		notified++
	}

	s.logger.Debug("Telemetry", "Congestion snapshot applied", map[string]interface{}{
		"applied":  res.Applied,
		"changed":  res.Changed,
		"stale":    len(res.Stale),
		"sessions": notified,
	})
	return res
}

// SnapshotFromReport converts wire levels. Unparseable levels are kept as-is
// so the graph reports and drops them per entry.
func SnapshotFromReport(report dto.CongestionReport) venue.CongestionSnapshot {
	snap := venue.CongestionSnapshot{Levels: make(map[string]venue.Congestion, len(report.Levels))}
	for id, raw := range report.Levels {
		level, err := venue.ParseCongestion(raw)
		if err != nil {
			level = venue.Congestion(raw)
		}
		snap.Levels[id] = level
	}
	if report.Timestamp != nil {
		snap.Timestamp = *report.Timestamp
	} else {
		snap.Timestamp = time.Now()
	}
	return snap
}
