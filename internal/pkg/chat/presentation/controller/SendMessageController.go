package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	authmw "teamchat/internal/pkg/auth/middleware"
	chat "teamchat/internal/pkg/chat/application/domain"
	"teamchat/internal/pkg/chat/application/usecase"
)

// SendMessageController handles the REST send path only; the websocket send
// path lands on the same use case.
type SendMessageController struct {
	uc *usecase.SendMessageUseCase
}

func NewSendMessageController(uc *usecase.SendMessageUseCase) *SendMessageController {
	return &SendMessageController{uc: uc}
}

// sendMessageRequest is the DTO for the HTTP request body.
type sendMessageRequest struct {
	Content      *string `json:"content"`
	Type         string  `json:"type"`
	FileURL      *string `json:"fileUrl"`
	FileMetadata *string `json:"fileMetadata"`
}

func (h *SendMessageController) Handle() gin.HandlerFunc {
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

		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		msg, err := h.uc.Execute(c.Request.Context(), usecase.SendMessageInput{
			Caller:         identity,
			ConversationID: conversationID,
			Content:        req.Content,
			Type:           chat.MessageType(req.Type),
			FileURL:        req.FileURL,
			FileMetadata:   req.FileMetadata,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"message": msg})
	}
}
