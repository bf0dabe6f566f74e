package rtc

import (
	"context"
	"errors"
	"sync"

	"github.com/dkeye/StageStream/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

var ErrConnectionClosed = errors.New("connection closed")

type WebRTCConnection struct {
	pc   *webrtc.PeerConnection
	sid  domain.SessionID
	stop func() bool

	mu      sync.RWMutex
	onState func(webrtc.PeerConnectionState)
}

func NewWebRTCConnection(api *webrtc.API, cfg webrtc.Configuration, sid domain.SessionID) (*WebRTCConnection, error) {
	pc, err := api.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &WebRTCConnection{pc: pc, sid: sid}, nil
}

// Start installs the pion callbacks. The connection is closed when ctx is done.
func (c *WebRTCConnection) Start(ctx context.Context) error {
	c.stop = context.AfterFunc(ctx, func() {
		if err := c.pc.Close(); err != nil {
			log.Error().Err(err).Str("module", "webrtc").Str("sid", string(c.sid)).Msg("close on ctx done")
		}
	})

	c.pc.OnICEConnectionStateChange(func(s webrtc.ICEConnectionState) {
		log.Info().Str("module", "webrtc").Str("sid", string(c.sid)).Str("ice_state", s.String()).Msg("ICE state")
	})

	c.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "webrtc").Str("sid", string(c.sid)).Str("peer_connection_state", s.String()).Msg("Peer state")
		c.mu.RLock()
		fn := c.onState
		c.mu.RUnlock()
		if fn != nil {
			fn(s)
		}
	})

	return nil
}

// AddLocalTrack attaches track and drains the RTCP of its sender so
// interceptors (NACK, reports) keep working.
func (c *WebRTCConnection) AddLocalTrack(track webrtc.TrackLocal) error {
	sender, err := c.pc.AddTrack(track)
	if err != nil {
		return err
	}
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()
	return nil
}

func (c *WebRTCConnection) CreateAndSetOffer(ctx context.Context) (*webrtc.SessionDescription, error) {
	offer, err := c.pc.CreateOffer(nil)
	if err != nil {
		return nil, err
	}
	if err := c.setLocalAndGather(ctx, offer); err != nil {
		return nil, err
	}
	return c.pc.LocalDescription(), nil
}

func (c *WebRTCConnection) ApplyOfferAndCreateAnswer(ctx context.Context, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := c.pc.SetRemoteDescription(offer); err != nil {
		return nil, err
	}
	answer, err := c.pc.CreateAnswer(nil)
	if err != nil {
		return nil, err
	}
	if err := c.setLocalAndGather(ctx, answer); err != nil {
		return nil, err
	}
	return c.pc.LocalDescription(), nil
}

// setLocalAndGather returns once every local candidate is in the
// description, since the HTTP surface has no trickle ICE.
func (c *WebRTCConnection) setLocalAndGather(ctx context.Context, desc webrtc.SessionDescription) error {
	gatherComplete := webrtc.GatheringCompletePromise(c.pc)
	if err := c.pc.SetLocalDescription(desc); err != nil {
		return err
	}
	select {
	case <-gatherComplete:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *WebRTCConnection) ApplyAnswer(answer webrtc.SessionDescription) error {
	if c.IsClosed() {
		return ErrConnectionClosed
	}
	return c.pc.SetRemoteDescription(answer)
}

func (c *WebRTCConnection) Close() error {
	if c.stop != nil {
		c.stop()
	}
	if err := c.pc.Close(); err != nil {
		log.Error().Err(err).Str("module", "webrtc").Str("sid", string(c.sid)).Msg("close error")
		return err
	}
	log.Info().Str("module", "webrtc").Str("sid", string(c.sid)).Msg("closed")
	return nil
}

func (c *WebRTCConnection) IsClosed() bool {
	return c.pc.ConnectionState() == webrtc.PeerConnectionStateClosed
}

func (c *WebRTCConnection) LocalDescription() *webrtc.SessionDescription {
	return c.pc.LocalDescription()
}

// OnStateChange sets application-level callback for peer state transitions.
func (c *WebRTCConnection) OnStateChange(fn func(webrtc.PeerConnectionState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onState = fn
}
