package handler

import (
	"context"
	"net/http"

	"roomchat/backend/internal/auth"
	"roomchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Pinger reports whether the backing stores are reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds the hub and the collaborators the HTTP glue needs.
type Handler struct {
	Hub    *chathub.ManagerService
	Tokens *auth.TokenService
	Health Pinger

	upgrader websocket.Upgrader
}

// NewHandler builds the handler. An empty allowedOrigins list accepts any origin.
func NewHandler(hub *chathub.ManagerService, tokens *auth.TokenService, health Pinger, allowedOrigins []string) *Handler {
	return &Handler{
		Hub:    hub,
		Tokens: tokens,
		Health: health,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin(allowedOrigins),
		},
	}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/healthz", h.Healthz)
	r.GET("/ws/chat/:room_id", h.Authenticate, h.ServeWebSocket)

	api := r.Group("/api", h.Authenticate)
	api.POST("/chats/start", h.StartChat)
}

func checkOrigin(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(r *http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin.
		return origin == "" || set[origin]
	}
}
