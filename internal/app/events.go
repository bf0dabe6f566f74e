package app

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dkeye/StageStream/internal/core"
	"github.com/dkeye/StageStream/internal/domain"
	"github.com/rs/zerolog/log"
)

type EventType string

const (
	EventSessionCreated  EventType = "session.created"
	EventSessionAnswered EventType = "session.answered"
	EventSessionState    EventType = "session.state"
	EventSessionClosed   EventType = "session.closed"
)

// Event is a lifecycle notification pushed to websocket subscribers.
type Event struct {
	Type      EventType        `json:"type"`
	SessionID domain.SessionID `json:"sid,omitempty"`
	State     string           `json:"state,omitempty"`
	At        time.Time        `json:"at"`
}

// Hub fans events out to subscribers. It never closes a subscriber unless
// the policy asks to kick it.
type Hub struct {
	Policy Policy

	mu   sync.RWMutex
	subs map[core.SignalConnection]struct{}
}

func NewHub(policy Policy) *Hub {
	return &Hub{
		Policy: policy,
		subs:   make(map[core.SignalConnection]struct{}),
	}
}

func (h *Hub) Subscribe(c core.SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[c] = struct{}{}
	log.Info().Str("module", "app.events").Int("subscribers", len(h.subs)).Msg("subscriber added")
}

func (h *Hub) Unsubscribe(c core.SignalConnection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, c)
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish is nil-safe so the signaling service can run without a hub.
func (h *Hub) Publish(ev Event) core.PublishResult {
	res := core.PublishResult{}
	if h == nil {
		return res
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	data, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("module", "app.events").Msg("marshal event")
		return res
	}

	h.mu.RLock()
	for sub := range h.subs {
		if err := sub.TrySend(data); err != nil {
			res.Dropped = append(res.Dropped, sub)
			continue
		}
		res.SendTo++
	}
	h.mu.RUnlock()

	log.Debug().Str("module", "app.events").Str("type", string(ev.Type)).Int("sent_to", res.SendTo).Int("dropped", len(res.Dropped)).Msg("publish result")

	if h.Policy == nil {
		return res
	}
	for _, slow := range res.Dropped {
		switch h.Policy.OnBackPressure(slow) {
		case KickMember:
			h.Unsubscribe(slow)
			slow.Close()
			log.Warn().Str("module", "app.events").Msg("kicked slow subscriber")
		case MarkSlow, DropFrame, NoAction:
		}
	}
	return res
}
