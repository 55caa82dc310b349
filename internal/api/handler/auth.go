package handler

import (
	"net/http"

	"roomchat/backend/internal/auth"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// Authenticate resolves the caller from a bearer token (or the token query
// parameter, for browsers opening a WebSocket) and aborts with 401 otherwise.
func (h *Handler) Authenticate(c *gin.Context) {
	token := auth.TokenFromRequest(c.Request)
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}

	userID, err := h.Tokens.Verify(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}

	c.Set(userIDKey, userID)
	c.Next()
}
