package events

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/dkeye/StageStream/internal/app"
	"github.com/dkeye/StageStream/internal/core"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrConnClosed = errors.New("connection closed")

// WSController streams session lifecycle events to websocket clients.
type WSController struct {
	Hub    *app.Hub
	Buffer int
}

func NewWSController(hub *app.Hub, buffer int) *WSController {
	if buffer <= 0 {
		buffer = 32
	}
	return &WSController{Hub: hub, Buffer: buffer}
}

type WsEventConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsEventConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsEventConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *WSController) HandleEvents(ctx context.Context, c *gin.Context) {
	client := c.GetString("client_token")
	log.Info().Str("module", "events").Str("client", client).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "events").Msg("ws upgrade")
		return
	}

	conn := &WsEventConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Buffer),
	}
	ctl.Hub.Subscribe(conn)

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, client, conn)
}
