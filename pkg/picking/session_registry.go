package picking

import (
	"Smart-Picking/domain"
	"sync"
	"time"
)

// SessionRegistry owns every live session. Requests against the same session are
// serialised through Acquire; a second concurrent request is refused rather than queued.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[string]*Session)}
}

func (r *SessionRegistry) Put(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID] = s
}

func (r *SessionRegistry) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.sessions[id]
	return ok
}

// Acquire locks the session for one request. The returned func releases it.
func (r *SessionRegistry) Acquire(id string) (*Session, func(), error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	if !s.busy.TryLock() {
		return nil, nil, domain.ErrSessionBusy
	}
	// a sweep may have evicted it between the lookup and the lock
	if !r.holds(id, s) {
		s.busy.Unlock()
		return nil, nil, domain.ErrSessionNotFound
	}
	return s, s.busy.Unlock, nil
}

func (r *SessionRegistry) holds(id string, s *Session) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[id] == s
}

// Sweep evicts sessions whose last activity is before cutoff and returns their ids.
// A session serving a request is skipped.
func (r *SessionRegistry) Sweep(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var evicted []string
	for id, s := range r.sessions {
		if !s.busy.TryLock() {
			continue
		}
		if s.LastActivity.Before(cutoff) {
			s.ResetLogin()
			delete(r.sessions, id)
			evicted = append(evicted, id)
		}
		s.busy.Unlock()
	}
	return evicted
}

func (r *SessionRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
}

func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
