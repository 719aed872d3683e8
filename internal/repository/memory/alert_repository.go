package memory

import (
	"sort"
	"sync"

	"venue-guide-be/internal/entity"

	"github.com/patrickmn/go-cache"
)

type AlertRepository struct {
	cache *cache.Cache
	// serializes read-modify-write of a single alert
	mu sync.Mutex
}

func NewAlertRepository() *AlertRepository {
	return &AlertRepository{cache: cache.New(cache.NoExpiration, 0)}
}

func (r *AlertRepository) Save(alert *entity.EmergencyAlert) {
	cp := *alert
	r.cache.SetDefault(alert.Id.String(), &cp)
}

func (r *AlertRepository) Get(id string) (*entity.EmergencyAlert, bool) {
	v, found := r.cache.Get(id)
	if !found {
		return nil, false
	}
	cp := *v.(*entity.EmergencyAlert)
	return &cp, true
}

// Update applies fn to the stored alert atomically. fn returning false aborts.
func (r *AlertRepository) Update(id string, fn func(a *entity.EmergencyAlert) bool) (*entity.EmergencyAlert, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, found := r.Get(id)
	if !found || !fn(a) {
		return a, false
	}
	r.Save(a)
	return a, true
}

// List returns alerts, newest first.
func (r *AlertRepository) List() []*entity.EmergencyAlert {
	items := r.cache.Items()
	out := make([]*entity.EmergencyAlert, 0, len(items))
	for _, it := range items {
		cp := *it.Object.(*entity.EmergencyAlert)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RaisedAt.Equal(out[j].RaisedAt) {
			return out[i].Id.String() < out[j].Id.String()
		}
		return out[i].RaisedAt.After(out[j].RaisedAt)
	})
	return out
}

// FindOpenBySession returns the unresolved alert of a session, if any.
func (r *AlertRepository) FindOpenBySession(sessionID string) (*entity.EmergencyAlert, bool) {
	for _, a := range r.List() {
		if a.SessionId == sessionID && a.IsOpen() {
			return a, true
		}
	}
	return nil, false
}
