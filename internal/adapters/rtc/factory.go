package rtc

import (
	"fmt"

	"github.com/dkeye/StageStream/internal/core"
	"github.com/dkeye/StageStream/internal/domain"
	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

func DefaultWebRTCConfig() webrtc.Configuration {
	return WebRTCConfig([]string{"stun:stun.l.google.com:19302"})
}

// WebRTCConfig builds a configuration with one ICE server per URL.
func WebRTCConfig(iceServers []string) webrtc.Configuration {
	cfg := webrtc.Configuration{}
	for _, u := range iceServers {
		if u == "" {
			continue
		}
		cfg.ICEServers = append(cfg.ICEServers, webrtc.ICEServer{URLs: []string{u}})
	}
	return cfg
}

// Factory builds pion peer connections sharing one API (codecs,
// interceptors, logging).
type Factory struct {
	api *webrtc.API
	cfg webrtc.Configuration
}

var (
	_ core.ConnectionFactory = (*Factory)(nil)
	_ core.MediaConnection   = (*WebRTCConnection)(nil)
)

func NewFactory(cfg webrtc.Configuration, pionLevel zerolog.Level) (*Factory, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}
	registry := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, registry); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}
	se := webrtc.SettingEngine{LoggerFactory: NewLoggerFactory(pionLevel)}

	api := webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(registry),
		webrtc.WithSettingEngine(se),
	)
	return &Factory{api: api, cfg: cfg}, nil
}

func (f *Factory) NewConnection(sid domain.SessionID) (core.MediaConnection, error) {
	wc, err := NewWebRTCConnection(f.api, f.cfg, sid)
	if err != nil {
		return nil, err
	}
	return wc, nil
}
