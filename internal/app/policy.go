package app

import "github.com/dkeye/StageStream/internal/core"

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	MarkSlow
	KickMember
	DropFrame
)

// Policy decides what happens to an event subscriber whose queue is full.
type Policy interface {
	OnBackPressure(sub core.SignalConnection) BackpressureAction
}

type SimplePolicy struct{}

func (SimplePolicy) OnBackPressure(core.SignalConnection) BackpressureAction {
	return KickMember
}

// TolerantPolicy drops the event but keeps the subscriber.
type TolerantPolicy struct{}

func (TolerantPolicy) OnBackPressure(core.SignalConnection) BackpressureAction {
	return DropFrame
}
