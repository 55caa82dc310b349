package handler

import (
	"errors"
	"log"
	"net/http"

	"roomchat/backend/internal/chathub"
	"roomchat/backend/internal/storage"

	"github.com/gin-gonic/gin"
)

type startChatRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// StartChat returns the room shared with the requested user, creating it
// on first contact.
func (h *Handler) StartChat(c *gin.Context) {
	var req startChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	room, err := h.Hub.StartChat(c.Request.Context(), c.GetString(userIDKey), req.UserID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"room_id": room.ID, "room": room})
	case errors.Is(err, chathub.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, chathub.ErrChatNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only chat with users in your area"})
	default:
		log.Printf("ERROR: Failed to start chat for %s: %v", c.GetString(userIDKey), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start chat"})
	}
}
