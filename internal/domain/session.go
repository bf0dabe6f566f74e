// Package domain contains entity without logic, just meta-data
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type SessionID string

// NewSessionID returns a fresh opaque session identifier.
func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}

type SessionState int32

// StateCreated and StateOfferSent are never observed apart from the outside:
// the offer is generated before a session is registered.
const (
	StateCreated SessionState = iota
	StateOfferSent
	StateAnswered
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateOfferSent:
		return "offer-sent"
	case StateAnswered:
		return "answered"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

func (s SessionState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SessionState) UnmarshalText(b []byte) error {
	for st := StateCreated; st <= StateClosed; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown session state %q", b)
}
