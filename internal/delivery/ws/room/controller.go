package ws_room

import (
	"log/slog"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Controller struct {
	hub        *Hub
	upgrader   websocket.Upgrader
	sendBuffer int
	logger     *slog.Logger
}

type ControllerOption func(*Controller)

func WithControllerLogger(logger *slog.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

func WithSendBuffer(n int) ControllerOption {
	return func(c *Controller) {
		if n > 0 {
			c.sendBuffer = n
		}
	}
}

// NewController upgrades /ws requests. Origins must be listed in
// allowedOrigins unless it contains "*"; requests without an Origin header
// are accepted.
func NewController(hub *Hub, allowedOrigins []string, opts ...ControllerOption) *Controller {
	c := &Controller{
		hub:        hub,
		sendBuffer: 256,
		logger:     slog.Default(),
	}
	c.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ws", c.serve)
}

func (c *Controller) serve(ctx *gin.Context) {
	conn, err := c.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		c.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := NewClient(uuid.New().String(), conn, c.hub, c.sendBuffer, c.logger)
	client.Run(ctx.Request.Context())
}
