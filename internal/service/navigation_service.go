package service

import (
	"context"
	"errors"
	"fmt"

	"venue-guide-be/internal/dto"
	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/internal/repository/memory"
	"venue-guide-be/pkg/navigation"
	"venue-guide-be/pkg/venue"

	"github.com/google/uuid"
)

type INavigationService interface {
	Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error)
	Show(ctx context.Context, sessionID string) (*dto.SessionResponse, error)
	Terminate(ctx context.Context, sessionID string) error
	SOS(ctx context.Context, sessionID string, action string) (*dto.SessionResponse, error)
	DismissInsight(ctx context.Context, sessionID string) (*dto.DismissInsightResponse, error)
	Exists(sessionID string) bool
	// Shutdown terminates every live session.
	Shutdown()
}

type navigationService struct {
	graph      *venue.Graph
	params     navigation.Params
	sessions   *memory.SessionRepository
	dispatcher IEventDispatcher
	emergency  IEmergencyService
	clock      navigation.Clock
	logger     logger.ILogger
}

func NewNavigationService(
	graph *venue.Graph,
	params navigation.Params,
	sessions *memory.SessionRepository,
	dispatcher IEventDispatcher,
	emergency IEmergencyService,
	clock navigation.Clock,
	log logger.ILogger,
) INavigationService {
	if clock == nil {
		clock = navigation.RealClock()
	}
	return &navigationService{
		graph:      graph,
		params:     params,
		sessions:   sessions,
		dispatcher: dispatcher,
		emergency:  emergency,
		clock:      clock,
		logger:     log,
	}
}

func (s *navigationService) Create(ctx context.Context, req *dto.CreateSessionRequest) (*dto.SessionResponse, error) {
	entityID := req.EntityID
	if entityID == "" {
		entityID = uuid.NewString()
	}
	sessionID := uuid.NewString()

	cfg := navigation.SessionConfig{
		ID:           sessionID,
		EntityID:     entityID,
		AssignedGate: req.AssignedGate,
		Params:       s.params,
		Logger:       s.logger,
	}
	if s.dispatcher != nil {
		cfg.Listener = s.dispatcher.ListenerFor(sessionID)
	}
	if req.StartX != nil && req.StartY != nil {
		cfg.Position = &venue.Point{X: *req.StartX, Y: *req.StartY}
	}

	runner := navigation.NewRunner(navigation.NewSession(s.graph, cfg), s.clock, s.params.TickInterval, s.logger)
	if replaced := s.sessions.Save(entityID, runner); replaced != "" {
		s.afterTerminate(ctx, replaced)
		s.logger.Info("NavigationService", "Replaced previous session for entity", map[string]interface{}{
			"entity_id":  entityID,
			"replaced":   replaced,
			"session_id": sessionID,
		})
	}

	if err := runner.Start(); err != nil {
		s.sessions.Delete(sessionID)
		return nil, fmt.Errorf("start session: %w", err)
	}

	s.logger.Info("NavigationService", "Session started", map[string]interface{}{
		"session_id": sessionID,
		"entity_id":  entityID,
		"gate":       req.AssignedGate,
	})
	return s.Show(ctx, sessionID)
}

func (s *navigationService) Show(ctx context.Context, sessionID string) (*dto.SessionResponse, error) {
	runner, err := s.runner(sessionID)
	if err != nil {
		return nil, err
	}
	status, err := runner.Status()
	if err != nil {
		return nil, s.mapRunnerErr(sessionID, err)
	}

	res := &dto.SessionResponse{Status: status}
	if s.emergency != nil && status.Mode == navigation.ModeEmergency {
		if id, ok := s.openAlert(ctx, sessionID); ok {
			res.AlertID = id
		}
	}
	return res, nil
}

func (s *navigationService) Terminate(ctx context.Context, sessionID string) error {
	if !s.sessions.Delete(sessionID) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	s.afterTerminate(ctx, sessionID)
	s.logger.Info("NavigationService", "Session terminated", map[string]interface{}{"session_id": sessionID})
	return nil
}

func (s *navigationService) SOS(ctx context.Context, sessionID string, action string) (*dto.SessionResponse, error) {
	runner, err := s.runner(sessionID)
	if err != nil {
		return nil, err
	}

	switch action {
	case dto.SOSActivate:
		if err := runner.TriggerSOS(); err != nil {
			return nil, s.mapRunnerErr(sessionID, err)
		}
		status, err := runner.Status()
		if err != nil {
			return nil, s.mapRunnerErr(sessionID, err)
		}
		res := &dto.SessionResponse{Status: status}
		if s.emergency != nil {
			alert, err := s.emergency.Raise(ctx, status)
			if err != nil {
				return nil, err
			}
			res.AlertID = alert.Id.String()
		}
		return res, nil

	case dto.SOSClear:
		if err := runner.ClearSOS(); err != nil {
			return nil, s.mapRunnerErr(sessionID, err)
		}
		if s.emergency != nil {
			if err := s.emergency.ResolveForSession(ctx, sessionID); err != nil {
				s.logger.Warn("NavigationService", "Failed to resolve alert on SOS clear", map[string]interface{}{
					"session_id": sessionID,
					"error":      err.Error(),
				})
			}
		}
		return s.Show(ctx, sessionID)
	}
	return nil, fmt.Errorf("unknown sos action %q", action)
}

func (s *navigationService) DismissInsight(ctx context.Context, sessionID string) (*dto.DismissInsightResponse, error) {
	runner, err := s.runner(sessionID)
	if err != nil {
		return nil, err
	}
	ok, err := runner.DismissInsight()
	if err != nil {
		return nil, s.mapRunnerErr(sessionID, err)
	}
	return &dto.DismissInsightResponse{Dismissed: ok}, nil
}

func (s *navigationService) Exists(sessionID string) bool {
	_, ok := s.sessions.Get(sessionID)
	return ok
}

func (s *navigationService) Shutdown() {
	n := s.sessions.Count()
	s.sessions.Flush()
	s.logger.Info("NavigationService", "All sessions terminated", map[string]interface{}{"count": n})
}

func (s *navigationService) runner(sessionID string) (*navigation.Runner, error) {
	r, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return r, nil
}

// mapRunnerErr folds a runner that stopped between lookup and call into
// not-found.
func (s *navigationService) mapRunnerErr(sessionID string, err error) error {
	if errors.Is(err, navigation.ErrSessionTerminated) {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, sessionID)
	}
	return err
}

func (s *navigationService) afterTerminate(ctx context.Context, sessionID string) {
	if s.dispatcher != nil {
		s.dispatcher.CloseSession(sessionID)
	}
	if s.emergency != nil {
		if err := s.emergency.ResolveForSession(ctx, sessionID); err != nil {
			s.logger.Warn("NavigationService", "Failed to resolve alert of ended session", map[string]interface{}{
				"session_id": sessionID,
				"error":      err.Error(),
			})
		}
	}
}

func (s *navigationService) openAlert(ctx context.Context, sessionID string) (string, bool) {
	for _, a := range s.emergency.List(ctx) {
		if a.SessionId == sessionID && a.IsOpen() {
			return a.Id.String(), true
		}
	}
	return "", false
}
