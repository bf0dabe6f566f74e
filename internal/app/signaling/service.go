package signaling

import (
	"context"
	"strings"

	"github.com/dkeye/StageStream/internal/app"
	"github.com/dkeye/StageStream/internal/app/media"
	"github.com/dkeye/StageStream/internal/core"
	"github.com/dkeye/StageStream/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"
)

type Mode string

const (
	// ModeOffer ignores whatever the client sends to start_stream and
	// always produces a fresh local offer.
	ModeOffer Mode = "offer"
	// ModeAnswer consumes a client offer when one is given and replies with an answer.
	ModeAnswer Mode = "answer"
)

// Description is an SDP on the wire.
type Description struct {
	SDP  string `json:"sdp"`
	Type string `json:"type"`
}

type Config struct {
	Mode      Mode
	Transform string
	Codec     webrtc.RTPCodecCapability
	Pump      media.PumpConfig
}

func DefaultConfig() Config {
	return Config{
		Mode:      ModeOffer,
		Transform: "rotate",
		Codec:     webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
	}
}

// Service drives the offer/answer/teardown state machine over a Registry.
type Service struct {
	Registry    *app.Registry
	Connections core.ConnectionFactory
	Events      *app.Hub
	Config      Config

	// ctx bounds connection and pump lifetimes; request contexts only bound negotiation.
	ctx context.Context
}

func NewService(ctx context.Context, reg *app.Registry, conns core.ConnectionFactory, events *app.Hub, cfg Config) *Service {
	if cfg.Codec.MimeType == "" {
		cfg.Codec = DefaultConfig().Codec
	}
	if cfg.Mode == "" {
		cfg.Mode = ModeOffer
	}
	return &Service{
		Registry:    reg,
		Connections: conns,
		Events:      events,
		Config:      cfg,
		ctx:         ctx,
	}
}

// StartStream creates a session and returns its local description.
func (s *Service) StartStream(ctx context.Context, hint Description, client string) (Description, error) {
	const op = "start_stream"
	sid := domain.NewSessionID()
	logger := log.With().Str("module", "signaling").Str("sid", string(sid)).Logger()

	conn, err := s.Connections.NewConnection(sid)
	if err != nil {
		logger.Error().Err(err).Msg("webrtc new pc")
		return Description{}, &Error{Op: op, Kind: ErrTransportInit, Err: err}
	}

	rtpTrack, err := webrtc.NewTrackLocalStaticRTP(s.Config.Codec, "video", "stagestream-"+string(sid))
	if err != nil {
		logger.Error().Err(err).Msg("new local track")
		if cerr := conn.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("close after failed start")
		}
		return Description{}, &Error{Op: op, Kind: ErrTransportInit, Err: err}
	}

	track := media.NewTransformTrack(nil, s.Config.Transform)
	pump := media.NewPump(track, media.NewOutTrack(rtpTrack), s.Config.Pump)
	sess := app.NewSession(sid, client, conn, track, pump)

	fail := func(step string, err error) (Description, error) {
		logger.Error().Err(err).Msg(step)
		if cerr := sess.Close(); cerr != nil {
			logger.Error().Err(cerr).Msg("close after failed start")
		}
		return Description{}, &Error{Op: op, Kind: ErrTransportInit, Err: err}
	}

	conn.OnStateChange(func(st webrtc.PeerConnectionState) {
		s.onPeerState(sess, st, &logger)
	})
	if err := conn.Start(s.ctx); err != nil {
		return fail("webrtc start", err)
	}
	if err := conn.AddLocalTrack(rtpTrack); err != nil {
		return fail("add local track", err)
	}

	local, answered, err := s.negotiate(ctx, conn, hint)
	if err != nil {
		return fail("negotiate", err)
	}
	sess.MarkOfferSent()
	if answered {
		sess.MarkAnswered()
	}

	if err := s.Registry.Add(sess); err != nil {
		return fail("register session", err)
	}
	sess.StartPump(s.ctx)

	logger.Info().Str("client", client).Str("type", local.Type.String()).Msg("stream started")
	s.Events.Publish(app.Event{Type: app.EventSessionCreated, SessionID: sid, State: sess.State().String()})

	return Description{SDP: local.SDP, Type: local.Type.String()}, nil
}

func (s *Service) negotiate(ctx context.Context, conn core.MediaConnection, hint Description) (*webrtc.SessionDescription, bool, error) {
	if s.Config.Mode == ModeAnswer && hint.SDP != "" && strings.EqualFold(hint.Type, webrtc.SDPTypeOffer.String()) {
		answer, err := conn.ApplyOfferAndCreateAnswer(ctx, webrtc.SessionDescription{
			Type: webrtc.SDPTypeOffer,
			SDP:  hint.SDP,
		})
		return answer, true, err
	}
	offer, err := conn.CreateAndSetOffer(ctx)
	return offer, false, err
}

// AcceptAnswer applies a remote description to the current session.
func (s *Service) AcceptAnswer(_ context.Context, sdp, sdpType string) error {
	const op = "answer"
	var sid domain.SessionID
	found, err := s.Registry.WithCurrent(func(sess *app.Session) error {
		sid = sess.ID
		desc := webrtc.SessionDescription{Type: webrtc.NewSDPType(sdpType), SDP: sdp}
		if err := sess.Conn().ApplyAnswer(desc); err != nil {
			return &Error{Op: op, Kind: ErrInvalidAnswer, Err: err}
		}
		sess.MarkAnswered()
		return nil
	})
	if !found {
		return &Error{Op: op, Kind: ErrNoActiveSession}
	}
	if err != nil {
		log.Warn().Err(err).Str("module", "signaling").Str("sid", string(sid)).Msg("answer rejected")
		return err
	}

	log.Info().Str("module", "signaling").Str("sid", string(sid)).Msg("answer applied")
	s.Events.Publish(app.Event{Type: app.EventSessionAnswered, SessionID: sid, State: domain.StateAnswered.String()})
	return nil
}

// StopStream closes the current session and then every other one.
func (s *Service) StopStream(_ context.Context) error {
	const op = "stop_stream"
	n := s.Registry.Drain(func(all []*app.Session) {
		for _, sess := range all {
			s.closeSession(sess)
		}
	})
	if n == 0 {
		return &Error{Op: op, Kind: ErrNoActiveSession}
	}
	log.Info().Str("module", "signaling").Int("closed", n).Msg("stream stopped")
	return nil
}

// Shutdown closes every session concurrently and waits for all of them.
// It never fails; an empty registry is a no-op.
func (s *Service) Shutdown() {
	n := s.Registry.Drain(func(all []*app.Session) {
		var wg conc.WaitGroup
		for _, sess := range all {
			wg.Go(func() { s.closeSession(sess) })
		}
		if r := wg.WaitAndRecover(); r != nil {
			log.Error().Err(r.AsError()).Str("module", "signaling").Msg("panic while closing sessions")
		}
	})
	log.Info().Str("module", "signaling").Int("closed", n).Msg("shutdown complete")
}

// Sessions lists live sessions, newest first.
func (s *Service) Sessions() []app.SessionInfo {
	snap := s.Registry.Snapshot()
	out := make([]app.SessionInfo, 0, len(snap))
	for _, sess := range snap {
		out = append(out, sess.Info())
	}
	return out
}

func (s *Service) closeSession(sess *app.Session) {
	if err := sess.Close(); err != nil {
		log.Error().Err(err).Str("module", "signaling").Str("sid", string(sess.ID)).Msg("close error")
	} else {
		log.Info().Str("module", "signaling").Str("sid", string(sess.ID)).Msg("closed")
	}
	s.Events.Publish(app.Event{Type: app.EventSessionClosed, SessionID: sess.ID, State: domain.StateClosed.String()})
}

func (s *Service) onPeerState(sess *app.Session, st webrtc.PeerConnectionState, logger *zerolog.Logger) {
	logger.Info().Str("peer_connection_state", st.String()).Msg("Peer state")
	s.Events.Publish(app.Event{Type: app.EventSessionState, SessionID: sess.ID, State: st.String()})

	switch st {
	case webrtc.PeerConnectionStateConnected:
		sess.Unmute()
	case webrtc.PeerConnectionStateDisconnected:
		sess.Pump().Out().MarkMuted()
	case webrtc.PeerConnectionStateFailed:
		if s.Registry.Evict(sess.ID, s.closeSession) {
			logger.Warn().Msg("evicted failed session")
		}
	}
}
