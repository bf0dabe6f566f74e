package app

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/dkeye/StageStream/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type chanConn struct {
	mu     sync.Mutex
	ch     chan core.Frame
	closed bool
}

func newChanConn(size int) *chanConn {
	return &chanConn{ch: make(chan core.Frame, size)}
}

func (c *chanConn) TrySend(f core.Frame) error {
	select {
	case c.ch <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

func (c *chanConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *chanConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func TestHub_PublishDelivers(t *testing.T) {
	h := NewHub(SimplePolicy{})
	c := newChanConn(1)
	h.Subscribe(c)

	res := h.Publish(Event{Type: EventSessionCreated, SessionID: "abc"})
	assert.Equal(t, 1, res.SendTo)

	var got Event
	require.NoError(t, json.Unmarshal(<-c.ch, &got))
	assert.Equal(t, EventSessionCreated, got.Type)
	assert.Equal(t, "abc", string(got.SessionID))
	assert.False(t, got.At.IsZero())
}

func TestHub_KicksSlowSubscriber(t *testing.T) {
	h := NewHub(SimplePolicy{})
	slow := newChanConn(0)
	h.Subscribe(slow)

	res := h.Publish(Event{Type: EventSessionClosed})
	assert.Len(t, res.Dropped, 1)
	assert.True(t, slow.isClosed())
	assert.Equal(t, 0, h.Len())
}

func TestHub_TolerantPolicyKeepsSubscriber(t *testing.T) {
	h := NewHub(TolerantPolicy{})
	slow := newChanConn(0)
	h.Subscribe(slow)

	h.Publish(Event{Type: EventSessionClosed})
	assert.False(t, slow.isClosed())
	assert.Equal(t, 1, h.Len())
}

func TestHub_NilIsSafe(t *testing.T) {
	var h *Hub
	assert.Equal(t, 0, h.Publish(Event{Type: EventSessionState}).SendTo)
}
