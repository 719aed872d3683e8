package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"venue-guide-be/internal/entity"
	"venue-guide-be/pkg/navigation"
	"venue-guide-be/pkg/venue"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRunner(t *testing.T, id string) *navigation.Runner {
	t.Helper()
	g, err := venue.New(venue.KashiDefinition())
	require.NoError(t, err)
	s := navigation.NewSession(g, navigation.SessionConfig{ID: id, AssignedGate: "gate-2", Params: navigation.DefaultParams()})
	r := navigation.NewRunner(s, nil, time.Hour, nil)
	t.Cleanup(r.Terminate)
	return r
}

func isDone(r *navigation.Runner) bool {
	select {
	case <-r.Done():
		return true
	default:
		return false
	}
}

func TestSessionRepositoryReplacesPerEntity(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	a := newRunner(t, "a")
	b := newRunner(t, "b")

	assert.Empty(t, repo.Save("pilgrim", a))
	assert.Equal(t, "a", repo.Save("pilgrim", b))

	assert.True(t, isDone(a), "replaced runner is terminated")
	_, ok := repo.Get("a")
	assert.False(t, ok)

	got, ok := repo.FindByEntity("pilgrim")
	require.True(t, ok)
	assert.Equal(t, "b", got.SessionID())
	assert.Equal(t, 1, repo.Count())
}

func TestSessionRepositoryConcurrentSaveKeepsOneRunner(t *testing.T) {
	repo := NewSessionRepository(time.Hour)

	runners := make([]*navigation.Runner, 8)
	for i := range runners {
		runners[i] = newRunner(t, fmt.Sprintf("s-%d", i))
	}

	var wg sync.WaitGroup
	for _, r := range runners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			repo.Save("pilgrim", r)
		}()
	}
	wg.Wait()

	require.Equal(t, 1, repo.Count())
	kept, ok := repo.FindByEntity("pilgrim")
	require.True(t, ok)

	for _, r := range runners {
		assert.Equal(t, r == kept, !isDone(r), r.SessionID())
	}
}

func TestSessionRepositoryDelete(t *testing.T) {
	repo := NewSessionRepository(time.Hour)
	r := newRunner(t, "a")
	repo.Save("pilgrim", r)

	assert.True(t, repo.Delete("a"))
	assert.False(t, repo.Delete("a"))
	assert.True(t, isDone(r))

	_, ok := repo.FindByEntity("pilgrim")
	assert.False(t, ok)
}

func TestSessionRepositoryAllIsSorted(t *testing.T) {
	repo := NewSessionRepository(0)
	for i, id := range []string{"c", "a", "b"} {
		repo.Save(string(rune('x'+i)), newRunner(t, id))
	}

	var ids []string
	for _, r := range repo.All() {
		ids = append(ids, r.SessionID())
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	repo.Flush()
	assert.Equal(t, 0, repo.Count())
}

func TestAlertRepository(t *testing.T) {
	repo := NewAlertRepository()
	base := time.Date(2024, 3, 8, 6, 0, 0, 0, time.UTC)

	older := &entity.EmergencyAlert{Id: uuid.New(), SessionId: "s-1", Status: entity.AlertResolved, RaisedAt: base}
	newer := &entity.EmergencyAlert{Id: uuid.New(), SessionId: "s-1", Status: entity.AlertActive, RaisedAt: base.Add(time.Minute)}
	repo.Save(older)
	repo.Save(newer)

	list := repo.List()
	require.Len(t, list, 2)
	assert.Equal(t, newer.Id, list[0].Id)

	open, ok := repo.FindOpenBySession("s-1")
	require.True(t, ok)
	assert.Equal(t, newer.Id, open.Id)

	// callers get copies
	open.Status = entity.AlertResolved
	still, _ := repo.Get(newer.Id.String())
	assert.Equal(t, entity.AlertActive, still.Status)

	_, ok = repo.Update(newer.Id.String(), func(a *entity.EmergencyAlert) bool { return false })
	assert.False(t, ok)

	updated, ok := repo.Update(newer.Id.String(), func(a *entity.EmergencyAlert) bool {
		a.Status = entity.AlertEnRoute
		return true
	})
	require.True(t, ok)
	assert.Equal(t, entity.AlertEnRoute, updated.Status)

	_, ok = repo.FindOpenBySession("s-2")
	assert.False(t, ok)
}
