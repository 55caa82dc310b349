package handler

import (
	"errors"
	"log"
	"net/http"

	"roomchat/backend/internal/chathub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// ServeWebSocket admits the caller into the room and upgrades the
// connection. Refused callers get a plain HTTP error and never reach the hub.
func (h *Handler) ServeWebSocket(c *gin.Context) {
	userID := c.GetString(userIDKey)
	roomID := c.Param("room_id")

	user, err := h.Hub.Admit(c.Request.Context(), userID, roomID)
	if errors.Is(err, chathub.ErrAccessDenied) {
		log.Printf("WARNING: User %s refused access to room %s", userID, roomID)
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Access denied"})
		return
	}
	if err != nil {
		log.Printf("ERROR: Failed to admit user %s to room %s: %v", userID, roomID, err)
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Service unavailable"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already answered the request.
		log.Printf("WARNING: WebSocket upgrade failed for user %s: %v", userID, err)
		return
	}

	client := chathub.NewWebSocketClient(h.Hub, conn, user, roomID)
	if err := h.Hub.Join(client); err != nil {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return
	}
	client.Run()
}
