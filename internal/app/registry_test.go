package app

import (
	"sync"
	"testing"

	"github.com/dkeye/StageStream/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBareSession() *Session {
	return NewSession(domain.NewSessionID(), "client", nil, nil, nil)
}

func TestRegistry_AddAndLen(t *testing.T) {
	r := NewRegistry()
	a, b := newBareSession(), newBareSession()

	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))
	require.NoError(t, r.Add(a))
	assert.Equal(t, 2, r.Len())

	got, ok := r.Get(a.ID)
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestRegistry_AddRejectsClosed(t *testing.T) {
	r := NewRegistry()
	s := newBareSession()
	require.NoError(t, s.Close())

	assert.ErrorIs(t, r.Add(s), ErrSessionClosed)
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_AnyIsMostRecent(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Any()
	assert.False(t, ok)

	first, second, third := newBareSession(), newBareSession(), newBareSession()
	for _, s := range []*Session{first, second, third} {
		require.NoError(t, r.Add(s))
	}

	cur, ok := r.Any()
	require.True(t, ok)
	assert.Same(t, third, cur)

	snap := r.Snapshot()
	require.Len(t, snap, 3)
	assert.Same(t, third, snap[0])
	assert.Same(t, first, snap[2])
}

func TestRegistry_RemoveAllDoesNotClose(t *testing.T) {
	r := NewRegistry()
	s := newBareSession()
	require.NoError(t, r.Add(s))

	out := r.RemoveAll()
	assert.Len(t, out, 1)
	assert.Equal(t, 0, r.Len())
	assert.False(t, s.IsClosed())
}

func TestRegistry_WithCurrent(t *testing.T) {
	r := NewRegistry()
	found, err := r.WithCurrent(func(*Session) error { t.Fatal("called on empty registry"); return nil })
	assert.False(t, found)
	assert.NoError(t, err)

	s := newBareSession()
	require.NoError(t, r.Add(s))
	var seen *Session
	found, err = r.WithCurrent(func(cur *Session) error { seen = cur; return nil })
	assert.True(t, found)
	assert.NoError(t, err)
	assert.Same(t, s, seen)
}

func TestRegistry_Drain(t *testing.T) {
	r := NewRegistry()
	assert.Equal(t, 0, r.Drain(func([]*Session) { t.Fatal("called on empty registry") }))

	a, b := newBareSession(), newBareSession()
	require.NoError(t, r.Add(a))
	require.NoError(t, r.Add(b))

	var order []*Session
	n := r.Drain(func(all []*Session) {
		order = all
		for _, s := range all {
			_ = s.Close()
		}
	})
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []*Session{b, a}, order)
	assert.True(t, a.IsClosed())
	assert.True(t, b.IsClosed())
}

func TestRegistry_Evict(t *testing.T) {
	r := NewRegistry()
	s := newBareSession()
	require.NoError(t, r.Add(s))

	assert.False(t, r.Evict("missing", nil))
	assert.True(t, r.Evict(s.ID, func(s *Session) { _ = s.Close() }))
	assert.Equal(t, 0, r.Len())
	assert.True(t, s.IsClosed())
}

func TestRegistry_ConcurrentAdds(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.Add(newBareSession())
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, r.Len())
}

func TestSession_StateTransitions(t *testing.T) {
	s := newBareSession()
	assert.Equal(t, domain.StateCreated, s.State())

	assert.True(t, s.MarkOfferSent())
	assert.Equal(t, domain.StateOfferSent, s.State())
	assert.True(t, s.MarkAnswered())
	assert.Equal(t, domain.StateAnswered, s.State())

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.False(t, s.MarkAnswered())
	assert.Equal(t, domain.StateClosed, s.State())
	assert.Equal(t, "closed", s.Info().State.String())
}
