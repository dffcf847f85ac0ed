package controller

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"teamchat/internal/infrastructure/realtime"
	authmw "teamchat/internal/pkg/auth/middleware"
	authport "teamchat/internal/pkg/auth/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	"teamchat/internal/pkg/chat/application/usecase"
	"teamchat/internal/pkg/presence"
)

// ChatSocketController handles the websocket endpoint for realtime chat
// traffic. The handshake authenticates before the upgrade; once attached, the
// connection stays up across frame-level errors and is the presence signal for
// its identity.
type ChatSocketController struct {
	router          *realtime.Router
	validator       authport.Validator
	presence        *presence.Manager
	sendMessageUC   *usecase.SendMessageUseCase
	markReadUC      *usecase.MarkReadUseCase
	joinRoomUC      *usecase.JoinRoomUseCase
	inflightTimeout time.Duration
}

func NewChatSocketController(
	router *realtime.Router,
	validator authport.Validator,
	pm *presence.Manager,
	sendUC *usecase.SendMessageUseCase,
	markReadUC *usecase.MarkReadUseCase,
	joinUC *usecase.JoinRoomUseCase,
) *ChatSocketController {
	return &ChatSocketController{
		router:          router,
		validator:       validator,
		presence:        pm,
		sendMessageUC:   sendUC,
		markReadUC:      markReadUC,
		joinRoomUC:      joinUC,
		inflightTimeout: 5 * time.Second,
	}
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin policy is enforced by the CORS layer in front of this route.
		return true
	},
}

type inboundFrame struct {
	Type           string  `json:"type"`
	ConversationID string  `json:"conversationId,omitempty"`
	ChannelID      string  `json:"channelId,omitempty"`
	Content        *string `json:"content,omitempty"`
	MsgType        string  `json:"msgType,omitempty"`
	FileURL        *string `json:"fileUrl,omitempty"`
	FileMetadata   *string `json:"fileMetadata,omitempty"`
}

type errorFrame struct {
	Type  string `json:"type"`
	Code  string `json:"code"`
	Error string `json:"error"`
}

type ackFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId,omitempty"`
	ChannelID      string `json:"channelId,omitempty"`
	Updated        *int64 `json:"updated,omitempty"`
}

const defaultReadTimeout = 60 * time.Second

// Handle authenticates, upgrades, and processes frames until the client
// disconnects.
func (ctl *ChatSocketController) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := authmw.BearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			return
		}

		identity, err := ctl.validator.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		ws, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrade already wrote the response; just return.
			return
		}

		conn := realtime.NewConnection(identity.UserID, identity.CompanyID, ws)
		ctl.router.Attach(conn)
		conn.Start()
		defer ctl.teardown(conn, *identity)

		ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
		if err := ctl.presence.Online(ctx, *identity); err != nil {
			ctl.replyError(conn, "internal_error", "presence update failed")
		}
		ctl.sendPresenceSnapshot(ctx, conn, *identity)
		cancel()

		ws.SetReadLimit(1 << 20)
		_ = ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		ws.SetPongHandler(func(string) error {
			return ws.SetReadDeadline(time.Now().Add(defaultReadTimeout))
		})

		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}

			var frame inboundFrame
			if err := json.Unmarshal(data, &frame); err != nil {
				ctl.replyError(conn, "bad_request", "invalid payload")
				continue
			}

			switch frame.Type {
			case "join":
				ctl.handleJoin(c, conn, *identity, frame)
			case "leave":
				ctl.handleLeave(conn, frame)
			case "message":
				ctl.handleMessage(c, conn, *identity, frame)
			case "read":
				ctl.handleRead(c, conn, *identity, frame)
			default:
				ctl.replyError(conn, "unsupported_type", "unknown frame type")
			}
		}
	}
}

// teardown detaches the connection, then re-checks the registry before any
// offline transition: a reconnect or a second tab must keep the identity
// online.
func (ctl *ChatSocketController) teardown(conn *realtime.Connection, identity authport.Identity) {
	ctl.router.Detach(conn)
	conn.Close(websocket.CloseNormalClosure, "session closed")

	if ctl.router.ConnectionsForUser(identity.UserID) > 0 {
		return
	}
	// The request context is gone by now.
	ctx, cancel := context.WithTimeout(context.Background(), ctl.inflightTimeout)
	defer cancel()
	if err := ctl.presence.Offline(ctx, identity); err != nil {
		log.Printf("gateway: offline transition for %s: %v", identity.UserID, err)
	}
}

// sendPresenceSnapshot privately replies with the status of every other known
// identity in the caller's company.
func (ctl *ChatSocketController) sendPresenceSnapshot(ctx context.Context, conn *realtime.Connection, identity authport.Identity) {
	statuses, err := ctl.presence.Snapshot(ctx, identity.CompanyID, identity.UserID)
	if err != nil {
		ctl.replyError(conn, "internal_error", "presence snapshot failed")
		return
	}
	if payload, err := json.Marshal(chat.NewPresenceStateFrame(statuses)); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleJoin(c *gin.Context, conn *realtime.Connection, identity authport.Identity, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	err := ctl.joinRoomUC.Execute(ctx, usecase.JoinRoomInput{
		Caller:         identity,
		ConversationID: frame.ConversationID,
		ChannelID:      frame.ChannelID,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}

	ctl.router.Join(frameRoom(frame), conn)
	ack := ackFrame{Type: "joined", ConversationID: frame.ConversationID, ChannelID: frame.ChannelID}
	if payload, err := json.Marshal(ack); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleLeave(conn *realtime.Connection, frame inboundFrame) {
	room := frameRoom(frame)
	if room == "" {
		ctl.replyError(conn, "bad_request", "conversationId or channelId is required")
		return
	}
	ctl.router.Leave(room, conn)

	ack := ackFrame{Type: "left", ConversationID: frame.ConversationID, ChannelID: frame.ChannelID}
	if payload, err := json.Marshal(ack); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleMessage(c *gin.Context, conn *realtime.Connection, identity authport.Identity, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	_, err := ctl.sendMessageUC.Execute(ctx, usecase.SendMessageInput{
		Caller:         identity,
		ConversationID: frame.ConversationID,
		Content:        frame.Content,
		Type:           chat.MessageType(frame.MsgType),
		FileURL:        frame.FileURL,
		FileMetadata:   frame.FileMetadata,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}
	// Delivery happens through the bus subscription, including to this
	// connection, so ordering matches every other subscriber.
}

func (ctl *ChatSocketController) handleRead(c *gin.Context, conn *realtime.Connection, identity authport.Identity, frame inboundFrame) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.inflightTimeout)
	defer cancel()

	res, err := ctl.markReadUC.Execute(ctx, usecase.MarkReadInput{
		Caller:         identity,
		ConversationID: frame.ConversationID,
	})
	if err != nil {
		ctl.handleUseCaseError(conn, err)
		return
	}

	ack := ackFrame{Type: "read", ConversationID: frame.ConversationID, Updated: &res.Updated}
	if payload, err := json.Marshal(ack); err == nil {
		_ = conn.Send(payload)
	}
}

func (ctl *ChatSocketController) handleUseCaseError(conn *realtime.Connection, err error) {
	switch {
	case errors.Is(err, chat.ErrNotFound):
		ctl.replyError(conn, "not_found", "conversation not found")
	case errors.Is(err, chat.ErrNotParticipant):
		ctl.replyError(conn, "forbidden", "not a participant")
	case errors.Is(err, usecase.ErrPersistence):
		ctl.replyError(conn, "internal_error", "unexpected persistence error")
	default:
		ctl.replyError(conn, "bad_request", err.Error())
	}
}

func (ctl *ChatSocketController) replyError(conn *realtime.Connection, code string, message string) {
	frame := errorFrame{Type: "error", Code: code, Error: message}
	if payload, err := json.Marshal(frame); err == nil {
		_ = conn.Send(payload)
	}
}

func frameRoom(frame inboundFrame) string {
	switch {
	case frame.ConversationID != "":
		return realtime.ConversationRoom(frame.ConversationID)
	case frame.ChannelID != "":
		return realtime.ChannelRoom(frame.ChannelID)
	default:
		return ""
	}
}
