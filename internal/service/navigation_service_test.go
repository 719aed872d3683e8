package service

import (
	"context"
	"testing"
	"time"

	"venue-guide-be/internal/dto"
	"venue-guide-be/internal/entity"
	"venue-guide-be/internal/pkg/logger"
	"venue-guide-be/internal/repository/memory"
	"venue-guide-be/pkg/navigation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type navFixture struct {
	svc        INavigationService
	emergency  IEmergencyService
	dispatcher *recordingDispatcher
	sessions   *memory.SessionRepository
}

func newNavFixture(t *testing.T) *navFixture {
	t.Helper()
	d := newRecordingDispatcher()
	sessions := memory.NewSessionRepository(time.Hour)
	emergency := NewEmergencyService(memory.NewAlertRepository(), d, logger.NewNopLogger())
	svc := NewNavigationService(calm(t), slowParams(), sessions, d, emergency, nil, logger.NewNopLogger())
	t.Cleanup(svc.Shutdown)
	return &navFixture{svc: svc, emergency: emergency, dispatcher: d, sessions: sessions}
}

func floatPtr(f float64) *float64 { return &f }

func TestNavigationCreate(t *testing.T) {
	f := newNavFixture(t)
	ctx := context.Background()

	res, err := f.svc.Create(ctx, &dto.CreateSessionRequest{
		EntityID:     "pilgrim-7",
		AssignedGate: "gate-2",
		StartX:       floatPtr(300),
		StartY:       floatPtr(360),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, "pilgrim-7", res.EntityID)
	assert.Equal(t, navigation.StateNavigating, res.State)
	assert.Equal(t, 300.0, res.Position.X)
	assert.Equal(t, []string{"gate-2", "security", "waiting", "sanctum"}, res.Route.Waypoints)
	assert.True(t, f.svc.Exists(res.SessionID))
}

func TestNavigationCreateGeneratesEntityID(t *testing.T) {
	f := newNavFixture(t)
	res, err := f.svc.Create(context.Background(), &dto.CreateSessionRequest{AssignedGate: "gate-2"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.EntityID)
	assert.Equal(t, navigation.DefaultParams().StartPosition, res.Position)
}

func TestNavigationCreateReplacesEntitySession(t *testing.T) {
	f := newNavFixture(t)
	ctx := context.Background()

	first, err := f.svc.Create(ctx, &dto.CreateSessionRequest{EntityID: "pilgrim-7", AssignedGate: "gate-2"})
	require.NoError(t, err)
	second, err := f.svc.Create(ctx, &dto.CreateSessionRequest{EntityID: "pilgrim-7", AssignedGate: "gate-vip"})
	require.NoError(t, err)

	assert.False(t, f.svc.Exists(first.SessionID))
	assert.True(t, f.svc.Exists(second.SessionID))
	assert.Equal(t, 1, f.sessions.Count())
	assert.Contains(t, f.dispatcher.closedSessions(), first.SessionID)

	_, err = f.svc.Show(ctx, first.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNavigationSOSLifecycle(t *testing.T) {
	f := newNavFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &dto.CreateSessionRequest{AssignedGate: "gate-2"})
	require.NoError(t, err)
	id := created.SessionID

	res, err := f.svc.SOS(ctx, id, dto.SOSActivate)
	require.NoError(t, err)
	assert.Equal(t, navigation.ModeEmergency, res.Mode)
	assert.Equal(t, []string{"sos-1", "exit"}, res.Route.Waypoints)
	require.NotEmpty(t, res.AlertID)

	shown, err := f.svc.Show(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, res.AlertID, shown.AlertID)

	again, err := f.svc.SOS(ctx, id, dto.SOSActivate)
	require.NoError(t, err)
	assert.Equal(t, res.AlertID, again.AlertID, "repeat activation keeps the open alert")

	cleared, err := f.svc.SOS(ctx, id, dto.SOSClear)
	require.NoError(t, err)
	assert.Equal(t, navigation.ModeNormal, cleared.Mode)
	assert.Empty(t, cleared.AlertID)

	alerts := f.emergency.List(ctx)
	require.Len(t, alerts, 1)
	assert.Equal(t, entity.AlertResolved, alerts[0].Status)
}

func TestNavigationTerminate(t *testing.T) {
	f := newNavFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &dto.CreateSessionRequest{AssignedGate: "gate-2"})
	require.NoError(t, err)
	_, err = f.svc.SOS(ctx, created.SessionID, dto.SOSActivate)
	require.NoError(t, err)

	require.NoError(t, f.svc.Terminate(ctx, created.SessionID))
	assert.False(t, f.svc.Exists(created.SessionID))
	assert.Equal(t, entity.AlertResolved, f.emergency.List(ctx)[0].Status, "ending a session closes its alert")

	assert.ErrorIs(t, f.svc.Terminate(ctx, created.SessionID), ErrSessionNotFound)
	_, err = f.svc.SOS(ctx, created.SessionID, dto.SOSClear)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = f.svc.DismissInsight(ctx, created.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestNavigationDismissInsight(t *testing.T) {
	f := newNavFixture(t)
	ctx := context.Background()

	created, err := f.svc.Create(ctx, &dto.CreateSessionRequest{AssignedGate: "gate-2"})
	require.NoError(t, err)

	res, err := f.svc.DismissInsight(ctx, created.SessionID)
	require.NoError(t, err)
	assert.False(t, res.Dismissed)
}

func TestNavigationShutdown(t *testing.T) {
	f := newNavFixture(t)
	ctx := context.Background()

	for _, gate := range []string{"gate-1", "gate-2", "gate-vip"} {
		_, err := f.svc.Create(ctx, &dto.CreateSessionRequest{AssignedGate: gate})
		require.NoError(t, err)
	}
	require.Equal(t, 3, f.sessions.Count())

	runners := f.sessions.All()
	f.svc.Shutdown()

	assert.Equal(t, 0, f.sessions.Count())
	for _, r := range runners {
		select {
		case <-r.Done():
		default:
			t.Fatalf("runner %s still running", r.SessionID())
		}
	}
}
