package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authmw "teamchat/internal/pkg/auth/middleware"
	"teamchat/internal/pkg/chat/application/usecase"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
)

const defaultMessageLimit = 50

// GetMessagesController handles the message-page endpoint only.
type GetMessagesController struct {
	uc *usecase.GetMessagesUseCase
}

func NewGetMessagesController(uc *usecase.GetMessagesUseCase) *GetMessagesController {
	return &GetMessagesController{uc: uc}
}

func (h *GetMessagesController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authmw.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		conversationID, ok := conversationIDParam(c)
		if !ok {
			return
		}

		limit := defaultMessageLimit
		if raw := c.Query("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 1 || parsed > repository.MaxMessagePage {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer between 1 and 100"})
				return
			}
			limit = parsed
		}

		msgs, err := h.uc.Execute(c.Request.Context(), usecase.GetMessagesInput{
			Caller:         identity,
			ConversationID: conversationID,
			Limit:          limit,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"messages": msgs})
	}
}

// conversationIDParam validates the :id path segment before any store access.
// A malformed id writes a 400 and reports false.
func conversationIDParam(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid conversation id"})
		return "", false
	}
	return id, true
}
