package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *WSController) writePump(ctx context.Context, c *WsEventConn) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "events").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Info().Str("module", "events").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second)); err != nil {
				log.Error().Err(err).Str("module", "events").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "events").Msg("writePump write error")
				return
			}
		}
	}
}

// readPump only answers pings; everything else a client sends is ignored.
func (ctl *WSController) readPump(ctx context.Context, cancel context.CancelFunc, client string, c *WsEventConn) {
	defer func() {
		log.Info().Str("module", "events").Str("client", client).Msg("readPump closing")
		ctl.Hub.Unsubscribe(c)
		cancel()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error().Err(err).Str("module", "events").Str("client", client).Msg("readPump read error")
			}
			return
		}
		var env struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &env); err != nil {
			log.Warn().Err(err).Str("module", "events").Msg("bad json")
			continue
		}
		if env.Type == "ping" {
			_ = c.TrySend([]byte(`{"type":"pong"}`))
		}
	}
}
