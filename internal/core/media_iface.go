package core

import (
	"context"

	"github.com/dkeye/StageStream/internal/domain"
	"github.com/pion/webrtc/v4"
)

//go:generate mockgen -source=media_iface.go -destination=mocks/mock_media.go -package=mocks

// MediaConnection is one peer connection owned by exactly one session.
type MediaConnection interface {
	// Start configures internal callbacks and binds the connection lifetime to ctx.
	Start(ctx context.Context) error
	// Close should stop all underlying media resources.
	Close() error
	IsClosed() bool
	// AddLocalTrack attaches an outbound track and drains its RTCP.
	AddLocalTrack(track webrtc.TrackLocal) error
	// CreateAndSetOffer returns the local offer once ICE gathering is complete.
	CreateAndSetOffer(ctx context.Context) (*webrtc.SessionDescription, error)
	// ApplyOfferAndCreateAnswer consumes a remote offer and returns the local answer.
	ApplyOfferAndCreateAnswer(ctx context.Context, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error)
	// ApplyAnswer sets the remote description.
	ApplyAnswer(answer webrtc.SessionDescription) error
	// OnStateChange sets a callback for peer connection state transitions.
	OnStateChange(fn func(webrtc.PeerConnectionState))
}

// ConnectionFactory creates transport connections for new sessions.
type ConnectionFactory interface {
	NewConnection(sid domain.SessionID) (MediaConnection, error)
}
