package media

import (
	"sync/atomic"

	"github.com/pion/webrtc/v4"
)

type TrackState int32

const (
	TrackStateMuted TrackState = iota
	TrackStateOk
	TrackStateDelete
)

func (s TrackState) String() string {
	switch s {
	case TrackStateMuted:
		return "muted"
	case TrackStateOk:
		return "ok"
	case TrackStateDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// OutTrack is the outgoing RTP track of one session.
// It starts muted; once deleted it can't be revived.
type OutTrack struct {
	Track *webrtc.TrackLocalStaticRTP
	state atomic.Int32 // Zero by default (TrackStateMuted)
}

func NewOutTrack(track *webrtc.TrackLocalStaticRTP) *OutTrack {
	return &OutTrack{Track: track}
}

func (ot *OutTrack) GetState() TrackState {
	return TrackState(ot.state.Load())
}

func (ot *OutTrack) MarkOk() {
	ot.transition(TrackStateOk)
}

func (ot *OutTrack) MarkMuted() {
	ot.transition(TrackStateMuted)
}

func (ot *OutTrack) MarkDelete() {
	ot.state.Store(int32(TrackStateDelete))
}

func (ot *OutTrack) transition(to TrackState) {
	for {
		cur := ot.state.Load()
		if TrackState(cur) == TrackStateDelete {
			return
		}
		if ot.state.CompareAndSwap(cur, int32(to)) {
			return
		}
	}
}
