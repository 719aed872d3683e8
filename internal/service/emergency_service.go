package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"venue-guide-be/internal/entity"
	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/internal/repository/memory"
	"venue-guide-be/pkg/events"
	"venue-guide-be/pkg/navigation"

	"github.com/google/uuid"
)

const (
	EventEmergencySOS    = "EMERGENCY_SOS"
	EventEmergencyAction = "EMERGENCY_ACTION"
)

type IEmergencyService interface {
	// Raise opens an alert for a session, or returns its open one.
	Raise(ctx context.Context, status navigation.Status) (*entity.EmergencyAlert, error)
	// ResolveForSession closes the session's open alert, if any.
	ResolveForSession(ctx context.Context, sessionID string) error
	List(ctx context.Context) []*entity.EmergencyAlert
	UpdateStatus(ctx context.Context, id string, status entity.AlertStatus) (*entity.EmergencyAlert, error)
}

type emergencyService struct {
	repo       *memory.AlertRepository
	dispatcher IEventDispatcher
	logger     logger.ILogger
	now        func() time.Time

	// one open alert per session
	raiseMu sync.Mutex
}

func NewEmergencyService(repo *memory.AlertRepository, dispatcher IEventDispatcher, log logger.ILogger) IEmergencyService {
	return &emergencyService{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     log,
		now:        time.Now,
	}
}

func (s *emergencyService) Raise(ctx context.Context, status navigation.Status) (*entity.EmergencyAlert, error) {
	s.raiseMu.Lock()
	if open, ok := s.repo.FindOpenBySession(status.SessionID); ok {
		s.raiseMu.Unlock()
		return open, nil
	}

	now := s.now()
	alert := &entity.EmergencyAlert{
		Id:        uuid.New(),
		SessionId: status.SessionID,
		EntityId:  status.EntityID,
		Location:  status.Position,
		Status:    entity.AlertActive,
		RaisedAt:  now,
		UpdatedAt: now,
	}
	s.repo.Save(alert)
	s.raiseMu.Unlock()

	s.logger.Warn("EmergencyService", "SOS raised", map[string]interface{}{
		"alert_id":   alert.Id,
		"session_id": alert.SessionId,
		"x":          alert.Location.X,
		"y":          alert.Location.Y,
	})
	s.publish(EventEmergencySOS, alert)
	return alert, nil
}

func (s *emergencyService) ResolveForSession(ctx context.Context, sessionID string) error {
	open, ok := s.repo.FindOpenBySession(sessionID)
	if !ok {
		return nil
	}
	_, err := s.UpdateStatus(ctx, open.Id.String(), entity.AlertResolved)
	return err
}

func (s *emergencyService) List(ctx context.Context) []*entity.EmergencyAlert {
	return s.repo.List()
}

func (s *emergencyService) UpdateStatus(ctx context.Context, id string, status entity.AlertStatus) (*entity.EmergencyAlert, error) {
	if _, ok := s.repo.Get(id); !ok {
		return nil, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
	}

	var from entity.AlertStatus
	alert, ok := s.repo.Update(id, func(a *entity.EmergencyAlert) bool {
		if !a.CanTransition(status) {
			from = a.Status
			return false
		}
		a.Status = status
		a.UpdatedAt = s.now()
		return true
	})
	if !ok {
		if alert == nil {
			return nil, fmt.Errorf("%w: %s", ErrAlertNotFound, id)
		}
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidAlertTransition, from, status)
	}

	s.logger.Info("EmergencyService", "Alert status changed", map[string]interface{}{
		"alert_id": alert.Id,
		"status":   alert.Status,
	})
	s.publish(EventEmergencyAction, alert)
	return alert, nil
}

func (s *emergencyService) publish(eventType string, alert *entity.EmergencyAlert) {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Forward(events.BaseEvent{
		Type: eventType,
		Data: map[string]interface{}{
			"alert_id":   alert.Id.String(),
			"session_id": alert.SessionId,
			"entity_id":  alert.EntityId,
			"location":   alert.Location,
			"status":     string(alert.Status),
		},
		OccurredAt: alert.UpdatedAt,
	})
}
