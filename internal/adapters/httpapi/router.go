// Package httpapi sets up the gin router that fronts the websocket
// endpoint.
package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"tunelink/internal/adapters/ws"
	"tunelink/internal/app"
	"tunelink/internal/config"
)

func SetupRouter(ctx context.Context, cfg *config.Config, hub *app.Hub) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	ctl := ws.NewController(hub)
	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})

	log.Info().Str("module", "httpapi").Msg("router setup")
	return r
}
