package interview

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entry struct {
	mu      sync.Mutex
	session *Session
	touched time.Time
}

// Registry keeps live sessions in memory keyed by a random id.
// Operations on one session are serialized; different sessions proceed
// independently.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	now      func() time.Time
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*entry),
		now:      time.Now,
	}
}

// Create registers a new empty session and returns its id
func (r *Registry) Create(d Durable) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = &entry{session: NewSession(d), touched: r.now()}
	r.mu.Unlock()
	return id
}

// With runs fn with exclusive access to the session. The error from fn is
// returned unchanged.
func (r *Registry) With(id string, fn func(s *Session) error) error {
	r.mu.RLock()
	e, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.touched = r.now()
	return fn(e.session)
}

// Delete removes a session and reports whether it existed
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[id]
	delete(r.sessions, id)
	return ok
}

// IDs lists the registered session ids in sorted order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	slices.Sort(ids)
	return ids
}

// Len is the number of registered sessions
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Evict drops sessions not touched within ttl and returns how many went
func (r *Registry) Evict(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, e := range r.sessions {
		if !e.mu.TryLock() {
			continue
		}
		stale := e.touched.Before(cutoff)
		e.mu.Unlock()
		if stale {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed
}
