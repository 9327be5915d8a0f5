package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/pulsewire-server/internal/auth"
	"github.com/vovakirdan/pulsewire-server/internal/config"
	"github.com/vovakirdan/pulsewire-server/internal/core"
	"github.com/vovakirdan/pulsewire-server/internal/store"
)

// NewServer builds the HTTP server: /health, the REST inspection API, and
// the /ws realtime endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, jwtCfg *auth.JWTConfig, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	var messages store.MessageStore
	if st != nil {
		messages = st
	}
	api := NewAPIHandlers(hub, authService, messages, logger)
	router.POST("/api/token", api.MintToken)

	authed := router.Group("/api", RequireAuth(jwtCfg, logger))
	authed.GET("/rooms", api.ListRooms)
	authed.GET("/rooms/:name/presence", api.RoomPresence)
	authed.GET("/rooms/:name/messages", api.RoomMessages)

	ws := NewWSHandler(hub, authService, messages, cfg, logger)
	router.GET("/ws", ws.Handle)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
