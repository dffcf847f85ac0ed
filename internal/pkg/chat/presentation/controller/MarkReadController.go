package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authmw "teamchat/internal/pkg/auth/middleware"
	"teamchat/internal/pkg/chat/application/usecase"
)

// MarkReadController handles the bulk read-receipt endpoint only.
type MarkReadController struct {
	uc *usecase.MarkReadUseCase
}

func NewMarkReadController(uc *usecase.MarkReadUseCase) *MarkReadController {
	return &MarkReadController{uc: uc}
}

func (h *MarkReadController) Handle() gin.HandlerFunc {
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

		res, err := h.uc.Execute(c.Request.Context(), usecase.MarkReadInput{
			Caller:         identity,
			ConversationID: conversationID,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "updated": res.Updated})
	}
}
