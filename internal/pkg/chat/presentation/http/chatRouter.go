package http

import (
	"github.com/gin-gonic/gin"

	busport "teamchat/internal/infrastructure/bus/port"
	queueport "teamchat/internal/infrastructure/queue/port"
	"teamchat/internal/infrastructure/realtime"
	authmw "teamchat/internal/pkg/auth/middleware"
	authport "teamchat/internal/pkg/auth/port"
	"teamchat/internal/pkg/chat/application/usecase"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
	"teamchat/internal/pkg/chat/presentation/controller"
	"teamchat/internal/pkg/presence"
	users "teamchat/internal/repository/port"
)

// Deps carries the ports the chat endpoints are built on. Callers construct
// adapters (Postgres wrapped in the cache decorator in production, in-memory
// in tests) and hand them over here.
type Deps struct {
	Repo      repository.ChatRepository
	Users     users.UserRepository
	Bus       busport.Bus
	Queue     queueport.Client
	Router    *realtime.Router
	Presence  *presence.Manager
	Validator authport.Validator
}

// RegisterRoutes registers chat endpoints under the given router group.
// It constructs per-endpoint controllers and binds them directly to routes.
func RegisterRoutes(g *gin.RouterGroup, deps Deps) {
	listUC := usecase.NewListConversationsUseCase(deps.Repo)
	startUC := usecase.NewStartConversationUseCase(deps.Repo, deps.Users)
	getMsgUC := usecase.NewGetMessagesUseCase(deps.Repo)
	sendUC := usecase.NewSendMessageUseCase(deps.Repo, deps.Users, deps.Bus, deps.Queue, deps.Presence, deps.Router)
	markReadUC := usecase.NewMarkReadUseCase(deps.Repo, deps.Bus)
	joinUC := usecase.NewJoinRoomUseCase(deps.Repo)

	listCtl := controller.NewListConversationsController(listUC)
	startCtl := controller.NewStartConversationController(startUC)
	getMsgCtl := controller.NewGetMessagesController(getMsgUC)
	sendCtl := controller.NewSendMessageController(sendUC)
	markReadCtl := controller.NewMarkReadController(markReadUC)
	socketCtl := controller.NewChatSocketController(deps.Router, deps.Validator, deps.Presence, sendUC, markReadUC, joinUC)

	authed := g.Group("", authmw.RequireAuth(deps.Validator))

	// GET  /api/conversations -> list the caller's conversations
	authed.GET("/conversations", listCtl.Handle())

	// POST /api/conversations -> create or fetch the direct conversation
	authed.POST("/conversations", startCtl.Handle())

	// GET  /api/conversations/:id/messages -> fetch a message page
	authed.GET("/conversations/:id/messages", getMsgCtl.Handle())

	// POST /api/conversations/:id/messages -> send a message
	authed.POST("/conversations/:id/messages", sendCtl.Handle())

	// PUT  /api/conversations/:id/messages/read -> mark incoming messages read
	authed.PUT("/conversations/:id/messages/read", markReadCtl.Handle())

	// GET  /api/chat/ws -> websocket endpoint; authenticates its own handshake
	g.GET("/chat/ws", socketCtl.Handle())
}
