package events

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/StageStream/internal/app"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEventsServer(t *testing.T) (*app.Hub, *websocket.Conn) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := app.NewHub(app.SimplePolicy{})
	ctl := NewWSController(hub, 8)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := gin.New()
	r.GET("/ws/events", func(c *gin.Context) { ctl.HandleEvents(ctx, c) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/events"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	require.Eventually(t, func() bool { return hub.Len() == 1 }, 2*time.Second, 10*time.Millisecond)
	return hub, ws
}

func TestWSController_StreamsEvents(t *testing.T) {
	hub, ws := newEventsServer(t)

	hub.Publish(app.Event{Type: app.EventSessionCreated, SessionID: "s1", State: "offer-sent"})

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)

	var ev app.Event
	require.NoError(t, json.Unmarshal(data, &ev))
	assert.Equal(t, app.EventSessionCreated, ev.Type)
	assert.Equal(t, "s1", string(ev.SessionID))
}

func TestWSController_Ping(t *testing.T) {
	_, ws := newEventsServer(t)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"pong"}`, string(data))
}

func TestWSController_UnsubscribesOnClose(t *testing.T) {
	hub, ws := newEventsServer(t)

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}
