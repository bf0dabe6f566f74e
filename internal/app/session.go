package app

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkeye/StageStream/internal/app/media"
	"github.com/dkeye/StageStream/internal/core"
	"github.com/dkeye/StageStream/internal/domain"
	"github.com/rs/zerolog/log"
)

// Session is one managed peer connection with its outbound track.
// The connection and the pump are owned by the session alone.
type Session struct {
	ID        domain.SessionID
	Client    string
	CreatedAt time.Time

	conn  core.MediaConnection
	track *media.TransformTrack
	pump  *media.Pump

	state atomic.Int32
	seq   uint64

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewSession(
	id domain.SessionID,
	client string,
	conn core.MediaConnection,
	track *media.TransformTrack,
	pump *media.Pump,
) *Session {
	return &Session{
		ID:        id,
		Client:    client,
		CreatedAt: time.Now(),
		conn:      conn,
		track:     track,
		pump:      pump,
	}
}

func (s *Session) Conn() core.MediaConnection   { return s.conn }
func (s *Session) Track() *media.TransformTrack { return s.track }
func (s *Session) Pump() *media.Pump            { return s.pump }

func (s *Session) State() domain.SessionState {
	return domain.SessionState(s.state.Load())
}

func (s *Session) IsClosed() bool {
	return s.State() == domain.StateClosed
}

// MarkOfferSent and MarkAnswered report false once the session is closed.
func (s *Session) MarkOfferSent() bool { return s.advance(domain.StateOfferSent) }
func (s *Session) MarkAnswered() bool  { return s.advance(domain.StateAnswered) }

func (s *Session) advance(to domain.SessionState) bool {
	for {
		cur := s.state.Load()
		if domain.SessionState(cur) == domain.StateClosed {
			return false
		}
		if s.state.CompareAndSwap(cur, int32(to)) {
			return true
		}
	}
}

// StartPump runs the frame pump until the session is closed.
func (s *Session) StartPump(parent context.Context) {
	if s.pump == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil || s.IsClosed() {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel

	logger := log.With().
		Str("module", "app.pump").
		Str("sid", string(s.ID)).
		Logger()
	go s.pump.Run(ctx, &logger)
}

// Unmute lets frames flow once the peer is connected.
func (s *Session) Unmute() {
	if s.pump != nil {
		s.pump.Out().MarkOk()
	}
}

// Close is safe to call many times; only the first call closes the connection.
func (s *Session) Close() error {
	if domain.SessionState(s.state.Swap(int32(domain.StateClosed))) == domain.StateClosed {
		return nil
	}
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	if s.pump != nil {
		s.pump.Out().MarkDelete()
	}
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

// SessionInfo is a read-only view for APIs (no transport fields).
type SessionInfo struct {
	ID        domain.SessionID    `json:"id"`
	State     domain.SessionState `json:"state"`
	Client    string              `json:"client,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

func (s *Session) Info() SessionInfo {
	return SessionInfo{
		ID:        s.ID,
		State:     s.State(),
		Client:    s.Client,
		CreatedAt: s.CreatedAt,
	}
}
