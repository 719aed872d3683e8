package memory

import (
	"sort"
	"sync"
	"time"

	"venue-guide-be/pkg/navigation"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps live session runners in memory. Sessions are keyed by
// session id with a secondary index by entity id, so one entity has at most
// one live session. Eviction (explicit delete, replacement or idle expiry)
// terminates the runner.
type SessionRepository struct {
	sessions *cache.Cache
	entities *cache.Cache
	// serializes replacement per entity
	mu sync.Mutex
}

type sessionEntry struct {
	runner   *navigation.Runner
	entityID string
}

func NewSessionRepository(idleTTL time.Duration) *SessionRepository {
	if idleTTL <= 0 {
		idleTTL = cache.NoExpiration
	}
	r := &SessionRepository{
		sessions: cache.New(idleTTL, time.Minute),
		entities: cache.New(cache.NoExpiration, 0),
	}
	r.sessions.OnEvicted(r.onEvicted)
	return r
}

func (r *SessionRepository) onEvicted(sessionID string, v interface{}) {
	entry := v.(*sessionEntry)
	if cur, ok := r.entities.Get(entry.entityID); ok && cur.(string) == sessionID {
		r.entities.Delete(entry.entityID)
	}
	entry.runner.Terminate()
}

// Save registers a runner for an entity and returns the runner it replaced,
// already terminated, if any.
func (r *SessionRepository) Save(entityID string, runner *navigation.Runner) (replaced string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.entities.Get(entityID); ok {
		replaced = prev.(string)
		r.sessions.Delete(replaced)
	}
	r.sessions.SetDefault(runner.SessionID(), &sessionEntry{runner: runner, entityID: entityID})
	r.entities.SetDefault(entityID, runner.SessionID())
	return replaced
}

// Get returns a live runner and refreshes its idle deadline.
func (r *SessionRepository) Get(sessionID string) (*navigation.Runner, bool) {
	v, found := r.sessions.Get(sessionID)
	if !found {
		return nil, false
	}
	// Replace never resurrects an entry evicted since the Get
	_ = r.sessions.Replace(sessionID, v, cache.DefaultExpiration)
	return v.(*sessionEntry).runner, true
}

func (r *SessionRepository) FindByEntity(entityID string) (*navigation.Runner, bool) {
	id, found := r.entities.Get(entityID)
	if !found {
		return nil, false
	}
	return r.Get(id.(string))
}

// Delete evicts and terminates a session. It reports whether it existed.
func (r *SessionRepository) Delete(sessionID string) bool {
	if _, found := r.sessions.Get(sessionID); !found {
		return false
	}
	r.sessions.Delete(sessionID)
	return true
}

// All lists live runners ordered by session id.
func (r *SessionRepository) All() []*navigation.Runner {
	items := r.sessions.Items()
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]*navigation.Runner, 0, len(ids))
	for _, id := range ids {
		out = append(out, items[id].Object.(*sessionEntry).runner)
	}
	return out
}

func (r *SessionRepository) Count() int {
	return r.sessions.ItemCount()
}

// Flush terminates every session. Used on shutdown.
func (r *SessionRepository) Flush() {
	for id := range r.sessions.Items() {
		r.sessions.Delete(id)
	}
}
