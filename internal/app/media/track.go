package media

import (
	"math/rand/v2"
	"sync"
)

// FrameSource yields successive frames for a single consumer.
type FrameSource interface {
	NextFrame() *Frame
}

// Generator fills pix with the picture for the next frame.
type Generator func(pix []byte)

// NoiseGenerator returns a generator painting every channel with an
// independent value in [0,155).
func NoiseGenerator(rng *rand.Rand) Generator {
	return func(pix []byte) {
		for i := range pix {
			pix[i] = byte(rng.IntN(155))
		}
	}
}

type TrackOption func(*TransformTrack)

// WithGenerator replaces the noise placeholder with a real picture source.
func WithGenerator(g Generator) TrackOption {
	return func(t *TransformTrack) { t.generate = g }
}

// TransformTrack produces the outbound video of a session. The upstream track
// and transform name are kept for a real pipeline; generation ignores both.
type TransformTrack struct {
	upstream  FrameSource
	transform string

	mu       sync.Mutex
	count    int64
	generate Generator
}

func NewTransformTrack(upstream FrameSource, transform string, opts ...TrackOption) *TransformTrack {
	t := &TransformTrack{
		upstream:  upstream,
		transform: transform,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.generate == nil {
		t.generate = NoiseGenerator(rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())))
	}
	return t
}

func (t *TransformTrack) Transform() string     { return t.transform }
func (t *TransformTrack) Upstream() FrameSource { return t.upstream }

// NextFrame always succeeds. Timestamps start at 0 and grow by one per call.
func (t *TransformTrack) NextFrame() *Frame {
	f := &Frame{
		Width:    FrameWidth,
		Height:   FrameHeight,
		Pix:      make([]byte, FrameWidth*FrameHeight*FrameChannels),
		TimeBase: Millisecond,
	}

	t.mu.Lock()
	t.generate(f.Pix)
	f.PTS = t.count
	t.count++
	t.mu.Unlock()

	return f
}
