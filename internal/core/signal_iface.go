package core

import "errors"

var ErrBackpressure = errors.New("backpressure")

// Frame is a raw binary payload.
type Frame []byte

// SignalConnection abstracts for a system messaging transport
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// PublishResult reports delivery stats/backpressure to the publisher.
type PublishResult struct {
	SendTo  int
	Dropped []SignalConnection
}
