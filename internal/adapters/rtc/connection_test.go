package rtc

import (
	"context"
	"testing"
	"time"

	"github.com/dkeye/StageStream/internal/domain"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestConnection(t *testing.T) *WebRTCConnection {
	t.Helper()
	f, err := NewFactory(webrtc.Configuration{}, zerolog.Disabled)
	require.NoError(t, err)

	mc, err := f.NewConnection(domain.NewSessionID())
	require.NoError(t, err)
	wc, ok := mc.(*WebRTCConnection)
	require.True(t, ok)
	require.NoError(t, wc.Start(context.Background()))
	t.Cleanup(func() { _ = wc.Close() })
	return wc
}

func newVideoTrack(t *testing.T) *webrtc.TrackLocalStaticRTP {
	t.Helper()
	track, err := webrtc.NewTrackLocalStaticRTP(
		webrtc.RTPCodecCapability{MimeType: webrtc.MimeTypeVP8, ClockRate: 90000},
		"video", "test",
	)
	require.NoError(t, err)
	return track
}

func TestWebRTCConfig(t *testing.T) {
	cfg := WebRTCConfig([]string{"stun:a.example:3478", "", "stun:b.example:3478"})
	require.Len(t, cfg.ICEServers, 2)
	assert.Equal(t, []string{"stun:b.example:3478"}, cfg.ICEServers[1].URLs)
	assert.Len(t, DefaultWebRTCConfig().ICEServers, 1)
}

func TestWebRTCConnection_OfferAnswerLoopback(t *testing.T) {
	wc := newTestConnection(t)
	require.NoError(t, wc.AddLocalTrack(newVideoTrack(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	offer, err := wc.CreateAndSetOffer(ctx)
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeOffer, offer.Type)
	assert.Contains(t, offer.SDP, "m=video")

	remote, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	defer func() { _ = remote.Close() }()

	require.NoError(t, remote.SetRemoteDescription(*offer))
	answer, err := remote.CreateAnswer(nil)
	require.NoError(t, err)
	gather := webrtc.GatheringCompletePromise(remote)
	require.NoError(t, remote.SetLocalDescription(answer))
	<-gather

	require.NoError(t, wc.ApplyAnswer(*remote.LocalDescription()))
	assert.NotNil(t, wc.LocalDescription())
}

func TestWebRTCConnection_ApplyOfferAndCreateAnswer(t *testing.T) {
	remote, err := webrtc.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	defer func() { _ = remote.Close() }()
	_, err = remote.AddTransceiverFromKind(webrtc.RTPCodecTypeVideo, webrtc.RTPTransceiverInit{
		Direction: webrtc.RTPTransceiverDirectionRecvonly,
	})
	require.NoError(t, err)

	offer, err := remote.CreateOffer(nil)
	require.NoError(t, err)
	gather := webrtc.GatheringCompletePromise(remote)
	require.NoError(t, remote.SetLocalDescription(offer))
	<-gather

	wc := newTestConnection(t)
	require.NoError(t, wc.AddLocalTrack(newVideoTrack(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	answer, err := wc.ApplyOfferAndCreateAnswer(ctx, *remote.LocalDescription())
	require.NoError(t, err)
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
}

func TestWebRTCConnection_RejectsMalformedAnswer(t *testing.T) {
	wc := newTestConnection(t)
	require.NoError(t, wc.AddLocalTrack(newVideoTrack(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, err := wc.CreateAndSetOffer(ctx)
	require.NoError(t, err)

	err = wc.ApplyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "not sdp"})
	assert.Error(t, err)
}

func TestWebRTCConnection_CloseReportsClosed(t *testing.T) {
	wc := newTestConnection(t)
	states := make(chan webrtc.PeerConnectionState, 4)
	wc.OnStateChange(func(s webrtc.PeerConnectionState) { states <- s })

	assert.False(t, wc.IsClosed())
	require.NoError(t, wc.Close())
	assert.True(t, wc.IsClosed())
	require.NoError(t, wc.Close())

	select {
	case s := <-states:
		assert.Equal(t, webrtc.PeerConnectionStateClosed, s)
	case <-time.After(2 * time.Second):
		t.Fatal("no closed state reported")
	}

	err := wc.ApplyAnswer(webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: "v=0"})
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestWebRTCConnection_ClosedWhenCtxDone(t *testing.T) {
	f, err := NewFactory(webrtc.Configuration{}, zerolog.Disabled)
	require.NoError(t, err)
	mc, err := f.NewConnection("ctx-bound")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, mc.Start(ctx))
	cancel()

	assert.Eventually(t, mc.IsClosed, 2*time.Second, 10*time.Millisecond)
}
