package app

import (
	"errors"
	"slices"
	"sync"

	"github.com/dkeye/StageStream/internal/domain"
	"github.com/rs/zerolog/log"
)

var ErrSessionClosed = errors.New("session already closed")

// Registry is the set of live sessions. Membership is the only record of
// which sessions exist; "current" is the most recently added one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]*Session
	seq      uint64
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[domain.SessionID]*Session),
	}
}

func (r *Registry) Add(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s.IsClosed() {
		return ErrSessionClosed
	}
	if existing, ok := r.sessions[s.ID]; ok && existing == s {
		return nil
	}
	r.seq++
	s.seq = r.seq
	r.sessions[s.ID] = s
	log.Info().Str("module", "app.registry").Str("sid", string(s.ID)).Int("size", len(r.sessions)).Msg("added session")
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Get(sid domain.SessionID) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[sid]
	return s, ok
}

// Any returns the current session.
func (r *Registry) Any() (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current()
}

func (r *Registry) current() (*Session, bool) {
	var cur *Session
	for _, s := range r.sessions {
		if cur == nil || s.seq > cur.seq {
			cur = s
		}
	}
	return cur, cur != nil
}

// WithCurrent runs fn on the current session under the read lock, so the
// session can't be torn down while fn runs. Reports false on an empty registry.
func (r *Registry) WithCurrent(fn func(*Session) error) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.current()
	if !ok {
		return false, nil
	}
	return true, fn(s)
}

// Snapshot returns every session, newest first.
func (r *Registry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

func (r *Registry) snapshot() []*Session {
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Session) int {
		switch {
		case a.seq > b.seq:
			return -1
		case a.seq < b.seq:
			return 1
		default:
			return 0
		}
	})
	return out
}

// RemoveAll empties the registry without closing anything and returns
// what it held, newest first.
func (r *Registry) RemoveAll() []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.snapshot()
	clear(r.sessions)
	log.Info().Str("module", "app.registry").Int("removed", len(out)).Msg("removed all sessions")
	return out
}

// Drain hands every session (newest first) to fn and clears the registry,
// all under the write lock. fn is not called on an empty registry.
func (r *Registry) Drain(fn func([]*Session)) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sessions) == 0 {
		return 0
	}
	out := r.snapshot()
	fn(out)
	clear(r.sessions)
	log.Info().Str("module", "app.registry").Int("removed", len(out)).Msg("drained sessions")
	return len(out)
}

// Evict runs fn on a single session and removes it under the write lock.
func (r *Registry) Evict(sid domain.SessionID, fn func(*Session)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if fn != nil {
		fn(s)
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("evicted session")
	return true
}
