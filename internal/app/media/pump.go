package media

import (
	"context"
	"time"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
	"github.com/rs/zerolog"
)

const (
	DefaultFPS = 30
	DefaultMTU = 1200
)

type PumpConfig struct {
	FPS     int
	MTU     uint16
	Encoder Encoder
}

// Pump is the send loop of a session: it pulls frames from the source,
// encodes them and writes the resulting RTP packets to the out track.
type Pump struct {
	src        FrameSource
	enc        Encoder
	out        *OutTrack
	packetizer rtp.Packetizer
	clockRate  uint32
	interval   time.Duration
}

func NewPump(src FrameSource, out *OutTrack, cfg PumpConfig) *Pump {
	if cfg.FPS <= 0 {
		cfg.FPS = DefaultFPS
	}
	if cfg.MTU == 0 {
		cfg.MTU = DefaultMTU
	}
	if cfg.Encoder == nil {
		cfg.Encoder = RawEncoder{}
	}
	clockRate := out.Track.Codec().ClockRate
	return &Pump{
		src:        src,
		enc:        cfg.Encoder,
		out:        out,
		packetizer: rtp.NewPacketizer(cfg.MTU, 0, 0, &codecs.VP8Payloader{}, rtp.NewRandomSequencer(), clockRate),
		clockRate:  clockRate,
		interval:   time.Second / time.Duration(cfg.FPS),
	}
}

func (p *Pump) Out() *OutTrack { return p.out }

// Run blocks until ctx is done or the out track is marked for delete.
func (p *Pump) Run(ctx context.Context, logger *zerolog.Logger) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("pump ctx done, marking out track for delete")
			p.out.MarkDelete()
			return
		case <-ticker.C:
		}

		switch p.out.GetState() {
		case TrackStateDelete:
			logger.Info().Msg("out track deleted, stopping pump")
			return
		case TrackStateMuted:
			continue
		case TrackStateOk:
			if err := p.step(logger); err != nil {
				logger.Error().Err(err).Msg("pump write RTP error, marking out track as delete")
				p.out.MarkDelete()
				return
			}
		}
	}
}

// step sends exactly one frame. Encoder failures skip the frame.
func (p *Pump) step(logger *zerolog.Logger) error {
	f := p.src.NextFrame()
	payload, err := p.enc.Encode(f)
	if err != nil {
		logger.Warn().Err(err).Int64("pts", f.PTS).Msg("encode failed, frame skipped")
		return nil
	}
	for _, pkt := range p.packetizer.Packetize(payload, f.TimeBase.Ticks(p.clockRate, 1)) {
		if err := p.out.Track.WriteRTP(pkt); err != nil {
			return err
		}
	}
	return nil
}
