package media

import "errors"

var ErrEmptyFrame = errors.New("empty frame")

// Encoder turns a frame into the payload carried by the outbound track.
type Encoder interface {
	Encode(f *Frame) ([]byte, error)
}

// RawEncoder ships the packed pixels untouched.
type RawEncoder struct{}

func (RawEncoder) Encode(f *Frame) ([]byte, error) {
	if f == nil || len(f.Pix) == 0 {
		return nil, ErrEmptyFrame
	}
	return f.Pix, nil
}
