package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"venue-guide-be/internal/dto"
	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/pkg/events"
	"venue-guide-be/pkg/navigation"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

const RelayTopic = "navigation.relay"

// StreamDelivery pushes frames to live viewers. Implemented by the websocket Hub.
type StreamDelivery interface {
	Send(sessionID string, data []byte)
	CloseSession(sessionID string)
}

// BusPublisher puts events on the external bus. Implemented by the NATS publisher.
type BusPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IEventDispatcher interface {
	// ListenerFor returns the Listener wired into a session. It runs on the
	// session goroutine and never blocks on network I/O.
	ListenerFor(sessionID string) navigation.Listener
	// Forward queues a non-session event (alerts) for the bus.
	Forward(event events.Event)
	CloseSession(sessionID string)
}

type eventDispatcher struct {
	delivery  StreamDelivery
	publisher message.Publisher
	logger    logger.ILogger
}

func NewEventDispatcher(delivery StreamDelivery, publisher message.Publisher, log logger.ILogger) IEventDispatcher {
	return &eventDispatcher{
		delivery:  delivery,
		publisher: publisher,
		logger:    log,
	}
}

func (d *eventDispatcher) ListenerFor(sessionID string) navigation.Listener {
	return func(evt navigation.Event) {
		if d.delivery != nil {
			frame, err := encodeFrame(evt)
			if err != nil {
				d.logger.Error("EventDispatcher", "Failed to encode frame", map[string]interface{}{
					"session_id": sessionID,
					"type":       evt.EventType(),
					"error":      err.Error(),
				})
			} else {
				d.delivery.Send(sessionID, frame)
			}
		}

		// position updates are stream-only; the bus gets state changes
		if _, ok := evt.(navigation.PositionUpdate); ok {
			return
		}
		d.Forward(evt)
	}
}

func (d *eventDispatcher) Forward(evt events.Event) {
	if d.publisher == nil {
		return
	}
	payload, err := json.Marshal(relayEnvelope{
		Type:      evt.EventType(),
		Timestamp: evt.Timestamp(),
		Data:      evt.Payload(),
	})
	if err != nil {
		d.logger.Error("EventDispatcher", "Failed to encode relay message", map[string]interface{}{"error": err.Error()})
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := d.publisher.Publish(RelayTopic, msg); err != nil {
		d.logger.Warn("EventDispatcher", "Relay publish failed", map[string]interface{}{
			"type":  evt.EventType(),
			"error": err.Error(),
		})
	}
}

func (d *eventDispatcher) CloseSession(sessionID string) {
	if d.delivery != nil {
		d.delivery.CloseSession(sessionID)
	}
}

func encodeFrame(evt events.Event) ([]byte, error) {
	return json.Marshal(dto.StreamFrame{
		Type: evt.EventType(),
		Data: evt.Payload(),
		At:   evt.Timestamp().UTC().Format(time.RFC3339Nano),
	})
}

type relayEnvelope struct {
	Type      string                 `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

type IEventRelay interface {
	Run(ctx context.Context) error
}

// eventRelay drains the relay topic into the external bus, off the session
// goroutines.
type eventRelay struct {
	subscriber message.Subscriber
	bus        BusPublisher
	logger     logger.ILogger
}

func NewEventRelay(subscriber message.Subscriber, bus BusPublisher, log logger.ILogger) IEventRelay {
	return &eventRelay{subscriber: subscriber, bus: bus, logger: log}
}

func (r *eventRelay) Run(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, RelayTopic)
	if err != nil {
		return fmt.Errorf("subscribe relay topic: %w", err)
	}

	go func() {
		for msg := range messages {
			r.process(ctx, msg)
		}
	}()
	return nil
}

func (r *eventRelay) process(ctx context.Context, msg *message.Message) {
	// delivery is best effort: every message is acked so one bad event or a
	// bus outage cannot wedge the relay
	defer msg.Ack()

	var env relayEnvelope
	if err := json.Unmarshal(msg.Payload, &env); err != nil {
		r.logger.Error("EventRelay", "Failed to unmarshal relay message", map[string]interface{}{"error": err.Error()})
		return
	}
	if r.bus == nil {
		return
	}

	evt := events.BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.Timestamp}
	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := r.bus.Publish(pubCtx, evt); err != nil {
		r.logger.Warn("EventRelay", "Bus publish failed, event dropped", map[string]interface{}{
			"type":  env.Type,
			"error": err.Error(),
		})
	}
}
