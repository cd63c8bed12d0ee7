package ws

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"tunelink/internal/app"
	"tunelink/internal/core"
)

const sendQueueSize = 32

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Controller struct {
	Hub      *app.Hub
	validate *validator.Validate
}

func NewController(hub *app.Hub) *Controller {
	return &Controller{
		Hub:      hub,
		validate: validator.New(),
	}
}

// HandleWS is the connection handshake: the claimed identity must be
// present (query `userId` or `X-User-ID` header) or the connection is
// rejected before any event is processed. The claim is assumed
// already verified upstream.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	identity := c.Query("userId")
	if identity == "" {
		identity = c.GetHeader("X-User-ID")
	}
	if identity == "" {
		log.Warn().Str("module", "ws").Msg("handshake without identity claim")
		c.JSON(http.StatusUnauthorized, gin.H{"error": core.ErrAuthFailure.Error()})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade failed")
		return
	}
	log.Info().Str("module", "ws").Str("conn", identity).Msg("connected")

	wc := newWSConn(core.ConnID(identity), conn, sendQueueSize)
	ctx, cancel := context.WithCancel(ctx)
	ctl.Hub.Bind(ctx, wc)

	go ctl.writePump(ctx, wc)
	go ctl.readPump(ctx, cancel, wc)
}
