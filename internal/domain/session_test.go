package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionState_JSON(t *testing.T) {
	b, err := json.Marshal(StateOfferSent)
	require.NoError(t, err)
	assert.Equal(t, `"offer-sent"`, string(b))

	var st SessionState
	require.NoError(t, json.Unmarshal([]byte(`"answered"`), &st))
	assert.Equal(t, StateAnswered, st)
	assert.Error(t, st.UnmarshalText([]byte("half-open")))
	assert.Equal(t, "unknown", SessionState(42).String())
}

func TestNewSessionID_Unique(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.NotEqual(t, a, b)
	assert.Len(t, string(a), 36)
}
