package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	authport "teamchat/internal/pkg/auth/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	"teamchat/internal/pkg/chat/application/usecase"
)

// respondError maps domain and use case errors onto HTTP statuses. Not-found
// and not-participant collapse onto 404 so responses never reveal whether a
// conversation exists outside the caller's reach.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, authport.ErrUnauthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
	case errors.Is(err, chat.ErrNotFound), errors.Is(err, chat.ErrNotParticipant):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, usecase.ErrInvalidInput),
		errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrInvalidMessage),
		errors.Is(err, chat.ErrSelfConversation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
