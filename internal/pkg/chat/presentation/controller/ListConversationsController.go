package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authmw "teamchat/internal/pkg/auth/middleware"
	"teamchat/internal/pkg/chat/application/usecase"
)

// ListConversationsController handles the conversation-list endpoint only
// (one controller per endpoint).
type ListConversationsController struct {
	uc *usecase.ListConversationsUseCase
}

func NewListConversationsController(uc *usecase.ListConversationsUseCase) *ListConversationsController {
	return &ListConversationsController{uc: uc}
}

func (h *ListConversationsController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authmw.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		out, err := h.uc.Execute(c.Request.Context(), identity)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"conversations": out})
	}
}
