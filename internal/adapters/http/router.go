package http

import (
	"context"

	"github.com/dkeye/StageStream/internal/adapters/events"
	"github.com/dkeye/StageStream/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupRouter(ctx context.Context, cfg *config.Config, h *Handlers, ws *events.WSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware(cfg.CORSOrigins))

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: 3600 * 24 * 7, HttpOnly: true})
	r.Use(sessions.Sessions("StageStreamSessions", store))
	r.Use(ClientTokenMiddleware())

	r.POST("/start_stream/", h.startStream)
	r.POST("/answer", h.answer)
	r.POST("/stop_stream/", h.stopStream)
	r.GET("/move_stage/:direction", h.moveStage)
	r.GET("/sessions", h.listSessions)
	r.GET("/healthz", h.healthz)

	if ws != nil {
		r.GET("/ws/events", func(c *gin.Context) {
			ws.HandleEvents(ctx, c)
		})
	}

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
