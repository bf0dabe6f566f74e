package media

const (
	FrameWidth    = 300
	FrameHeight   = 150
	FrameChannels = 3
)

// TimeBase is the duration of one PTS tick in seconds, Num/Den.
type TimeBase struct {
	Num int64
	Den int64
}

// Millisecond is the time base every generated frame carries.
var Millisecond = TimeBase{Num: 1, Den: 1000}

// Ticks converts d PTS ticks into samples of an RTP clock.
func (tb TimeBase) Ticks(clockRate uint32, d int64) uint32 {
	if tb.Den == 0 {
		return 0
	}
	return uint32(int64(clockRate) * tb.Num * d / tb.Den)
}

// Frame is a packed BGR24 picture handed to the encoder. The receiver owns it.
type Frame struct {
	Width    int
	Height   int
	Pix      []byte
	PTS      int64
	TimeBase TimeBase
}

// Stride is the number of bytes per row.
func (f *Frame) Stride() int {
	return f.Width * FrameChannels
}
