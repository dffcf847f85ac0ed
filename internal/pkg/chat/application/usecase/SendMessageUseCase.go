package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	busport "teamchat/internal/infrastructure/bus/port"
	queueport "teamchat/internal/infrastructure/queue/port"
	"teamchat/internal/infrastructure/realtime"
	authport "teamchat/internal/pkg/auth/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
	users "teamchat/internal/repository/port"
)

// NotifyOfflineTaskType is the queue task the delivery bridge enqueues when
// the recipient has no live connection anywhere in the cluster.
const NotifyOfflineTaskType = "chat:notify_offline"

// StatusReader exposes the last persisted presence status; satisfied by the
// presence manager.
type StatusReader interface {
	Status(ctx context.Context, userID string) (chat.PresenceStatus, error)
}

// ConnectionCounter reports live connections on this instance; satisfied by
// the realtime router.
type ConnectionCounter interface {
	ConnectionsForUser(userID string) int
}

// SendMessageInput carries the data needed to send a new message.
type SendMessageInput struct {
	Caller         authport.Identity
	ConversationID string
	Content        *string
	Type           chat.MessageType
	FileURL        *string
	FileMetadata   *string
}

// SendMessageUseCase is the single send path: validate, persist, then publish
// in that order so a broadcast never precedes its durable write. Publish and
// bridge failures are logged and never roll back the committed message.
type SendMessageUseCase struct {
	Repo     repository.ChatRepository
	Users    users.UserRepository
	Bus      busport.Bus
	Queue    queueport.Client
	Presence StatusReader
	Registry ConnectionCounter
}

func NewSendMessageUseCase(
	repo repository.ChatRepository,
	userRepo users.UserRepository,
	bus busport.Bus,
	queue queueport.Client,
	presence StatusReader,
	registry ConnectionCounter,
) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Users: userRepo, Bus: bus, Queue: queue, Presence: presence, Registry: registry}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if in.ConversationID == "" {
		return nil, fmt.Errorf("%w: conversationId is required", ErrInvalidInput)
	}

	conv, err := uc.Repo.FindConversation(ctx, in.ConversationID, in.Caller.CompanyID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !conv.HasParticipant(in.Caller.UserID) {
		return nil, chat.ErrNotFound
	}

	msg, err := chat.NewMessage(chat.Message{
		ConversationID: conv.ID,
		SenderID:       in.Caller.UserID,
		Content:        in.Content,
		Type:           in.Type,
		FileURL:        in.FileURL,
		FileMetadata:   in.FileMetadata,
	})
	if err != nil {
		return nil, err
	}

	saved, err := uc.Repo.SaveMessage(ctx, *conv, *msg)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	uc.publish(ctx, conv.ID, *saved)
	uc.bridgeOffline(ctx, *conv, *saved)

	return saved, nil
}

// publish fans the new message out to the conversation room, followed by the
// lighter metadata event, on the same bus channel so subscribers observe them
// in that order.
func (uc *SendMessageUseCase) publish(ctx context.Context, conversationID string, m chat.Message) {
	room := realtime.ConversationRoom(conversationID)

	if payload, err := chat.WrapEvent(room, chat.EventMessageNew, chat.NewMessageNewEvent(conversationID, m)); err == nil {
		if err := uc.Bus.Publish(ctx, chat.BusChannel, payload); err != nil {
			log.Printf("chat: publish %s for %s: %v", chat.EventMessageNew, conversationID, err)
		}
	}

	if payload, err := chat.WrapEvent(room, chat.EventConversationUpdated, chat.NewConversationUpdatedEvent(conversationID)); err == nil {
		if err := uc.Bus.Publish(ctx, chat.BusChannel, payload); err != nil {
			log.Printf("chat: publish %s for %s: %v", chat.EventConversationUpdated, conversationID, err)
		}
	}
}

// bridgeOffline hands the message to the notification collaborator when the
// recipient has no live connection: none on this instance, and the persisted
// cluster-wide status is not online.
func (uc *SendMessageUseCase) bridgeOffline(ctx context.Context, conv chat.Conversation, m chat.Message) {
	recipientID := conv.OtherParticipant(m.SenderID)
	if uc.Registry.ConnectionsForUser(recipientID) > 0 {
		return
	}
	status, err := uc.Presence.Status(ctx, recipientID)
	if err != nil {
		log.Printf("chat: presence check for %s: %v", recipientID, err)
		status = chat.PresenceOffline
	}
	if status == chat.PresenceOnline {
		// Connected to another instance; the bus delivers.
		return
	}

	sender := chat.UserSummary{ID: m.SenderID}
	if u, err := uc.Users.FindByIDInCompany(ctx, m.SenderID, conv.CompanyID); err == nil && u != nil {
		sender = chat.UserSummary{ID: u.ID, Email: u.Email, FirstName: u.FirstName, LastName: u.LastName, AvatarURL: u.AvatarURL}
	}

	payload, err := json.Marshal(chat.NewMessageNotification{
		ConversationID:  conv.ID,
		Message:         m,
		Sender:          sender,
		RecipientID:     recipientID,
		RecipientStatus: status,
		CompanyID:       conv.CompanyID,
	})
	if err != nil {
		log.Printf("chat: encode offline notification: %v", err)
		return
	}

	opts := queueport.EnqueueOption{Queue: "notifications", MaxRetry: 10, Retention: 24 * time.Hour}
	if _, err := uc.Queue.Enqueue(ctx, queueport.Task{Type: NotifyOfflineTaskType, Payload: payload}, opts); err != nil {
		// Fire-and-forget: the send already succeeded.
		log.Printf("chat: enqueue offline notification for %s: %v", recipientID, err)
	}
}
