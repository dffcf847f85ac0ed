package v1

import (
	"github.com/gin-gonic/gin"

	httpHandler "teamchat/internal/pkg/chat/presentation/http"
)

// RegisterRoutes mounts all messaging API routes under /api
func RegisterRoutes(r *gin.Engine, deps httpHandler.Deps) {
	api := r.Group("/api")
	httpHandler.RegisterRoutes(api, deps)
}
