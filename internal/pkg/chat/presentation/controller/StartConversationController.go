package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authmw "teamchat/internal/pkg/auth/middleware"
	"teamchat/internal/pkg/chat/application/usecase"
)

// StartConversationController handles the create-or-fetch conversation
// endpoint only.
type StartConversationController struct {
	uc *usecase.StartConversationUseCase
}

func NewStartConversationController(uc *usecase.StartConversationUseCase) *StartConversationController {
	return &StartConversationController{uc: uc}
}

// startConversationRequest is the DTO for the HTTP request body. Exactly one
// of the two target fields is expected; presence of both prefers the id.
type startConversationRequest struct {
	TargetUserID string `json:"targetUserId"`
	TargetEmail  string `json:"targetEmail"`
}

func (h *StartConversationController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := authmw.IdentityFrom(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing identity"})
			return
		}

		var req startConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		conv, err := h.uc.Execute(c.Request.Context(), usecase.StartConversationInput{
			Caller:       identity,
			TargetUserID: req.TargetUserID,
			TargetEmail:  req.TargetEmail,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"conversation": conv})
	}
}
