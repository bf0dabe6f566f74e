package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/dkeye/StageStream/internal/app"
	"github.com/dkeye/StageStream/internal/app/signaling"
	"github.com/dkeye/StageStream/internal/app/stage"
	"github.com/dkeye/StageStream/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Streamer is the part of the signaling service the HTTP layer needs.
type Streamer interface {
	StartStream(ctx context.Context, hint signaling.Description, client string) (signaling.Description, error)
	AcceptAnswer(ctx context.Context, sdp, sdpType string) error
	StopStream(ctx context.Context) error
	Sessions() []app.SessionInfo
}

type Handlers struct {
	Streams       Streamer
	Stage         stage.Mover
	StartLimiter  *RateLimiter
	GatherTimeout time.Duration
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func respondError(c *gin.Context, err error) {
	if signaling.IsClientError(err) {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: err.Error()})
		return
	}
	log.Error().Err(err).Str("module", "adapters.http").Str("path", c.FullPath()).Msg("internal error")
	c.JSON(http.StatusInternalServerError, errorResponse{Detail: "internal error"})
}

func (h *Handlers) startStream(c *gin.Context) {
	client := c.GetString(clientTokenKey)
	if h.StartLimiter != nil && !h.StartLimiter.Allow(client) {
		c.JSON(http.StatusTooManyRequests, errorResponse{Detail: "too many start_stream requests"})
		return
	}

	// The body is optional: in offer mode it is ignored anyway.
	var hint signaling.Description
	if err := c.ShouldBindJSON(&hint); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid session description"})
		return
	}

	ctx := c.Request.Context()
	if h.GatherTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.GatherTimeout)
		defer cancel()
	}

	desc, err := h.Streams.StartStream(ctx, hint, client)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, desc)
}

func (h *Handlers) answer(c *gin.Context) {
	var req signaling.Description
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Detail: "invalid session description"})
		return
	}
	if err := h.Streams.AcceptAnswer(c.Request.Context(), req.SDP, req.Type); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handlers) stopStream(c *gin.Context) {
	if err := h.Streams.StopStream(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}

func (h *Handlers) moveStage(c *gin.Context) {
	dir := domain.Direction(c.Param("direction"))
	if err := h.Stage.Move(c.Request.Context(), dir); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "direction": dir})
}

func (h *Handlers) listSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.Streams.Sessions())
}

func (h *Handlers) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": len(h.Streams.Sessions())})
}
