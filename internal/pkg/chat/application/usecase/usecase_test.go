package usecase

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	busadapter "teamchat/internal/infrastructure/bus/adapter"
	queueport "teamchat/internal/infrastructure/queue/port"
	authport "teamchat/internal/pkg/auth/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	repoadapter "teamchat/internal/pkg/chat/persistence/repository/adapter"
	useradapter "teamchat/internal/repository/adapter"
	users "teamchat/internal/repository/port"
)

var (
	callerA = authport.Identity{UserID: "user-a", CompanyID: "co-1", Email: "a@x.test"}
	callerB = authport.Identity{UserID: "user-b", CompanyID: "co-1", Email: "b@x.test"}
	caller2 = authport.Identity{UserID: "user-x", CompanyID: "co-2", Email: "x@y.test"}
)

func strPtr(s string) *string { return &s }

type recordingQueue struct {
	tasks []queueport.Task
}

func (q *recordingQueue) Enqueue(ctx context.Context, t queueport.Task, opts ...queueport.EnqueueOption) (string, error) {
	q.tasks = append(q.tasks, t)
	return "task-1", nil
}
func (q *recordingQueue) Close() error { return nil }

type staticStatus struct{ status chat.PresenceStatus }

func (s staticStatus) Status(ctx context.Context, userID string) (chat.PresenceStatus, error) {
	return s.status, nil
}

type staticCounter struct{ n int }

func (c staticCounter) ConnectionsForUser(userID string) int { return c.n }

func seedUsers(repo *repoadapter.MemoryChatRepository, userRepo *useradapter.MemoryUserRepository) {
	for _, id := range []authport.Identity{callerA, callerB} {
		userRepo.Add(users.User{ID: id.UserID, Email: id.Email}, id.CompanyID)
		repo.AddUser(chat.UserSummary{ID: id.UserID, Email: id.Email})
	}
	userRepo.Add(users.User{ID: caller2.UserID, Email: caller2.Email}, caller2.CompanyID)
}

func newSendUC(repo *repoadapter.MemoryChatRepository, userRepo *useradapter.MemoryUserRepository, bus *busadapter.MemoryBus, q *recordingQueue, status chat.PresenceStatus, conns int) *SendMessageUseCase {
	return NewSendMessageUseCase(repo, userRepo, bus, q, staticStatus{status}, staticCounter{conns})
}

func TestStartConversationCanonicalPairing(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	uc := NewStartConversationUseCase(repo, userRepo)

	first, err := uc.Execute(context.Background(), StartConversationInput{Caller: callerA, TargetUserID: callerB.UserID})
	require.NoError(t, err)

	// Same pair from the other side resolves to the same row.
	second, err := uc.Execute(context.Background(), StartConversationInput{Caller: callerB, TargetUserID: callerA.UserID})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.User1ID, second.User1ID)
	assert.True(t, first.User1ID < first.User2ID)

	list, err := NewListConversationsUseCase(repo).Execute(context.Background(), callerA)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestStartConversationByEmail(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	uc := NewStartConversationUseCase(repo, userRepo)

	conv, err := uc.Execute(context.Background(), StartConversationInput{Caller: callerA, TargetEmail: "B@X.TEST"})
	require.NoError(t, err)
	assert.True(t, conv.HasParticipant(callerB.UserID))
}

func TestStartConversationRejects(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	uc := NewStartConversationUseCase(repo, userRepo)

	_, err := uc.Execute(context.Background(), StartConversationInput{Caller: callerA})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = uc.Execute(context.Background(), StartConversationInput{Caller: callerA, TargetEmail: "nobody@x.test"})
	assert.ErrorIs(t, err, chat.ErrNotFound)

	// Target in another company is indistinguishable from absent.
	_, err = uc.Execute(context.Background(), StartConversationInput{Caller: callerA, TargetUserID: caller2.UserID})
	assert.ErrorIs(t, err, chat.ErrNotFound)

	_, err = uc.Execute(context.Background(), StartConversationInput{Caller: callerA, TargetUserID: callerA.UserID})
	assert.ErrorIs(t, err, chat.ErrSelfConversation)
}

func TestSendMessageRejectsEmptyBody(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	conv, err := repo.GetOrCreateConversation(context.Background(), "co-1", callerA.UserID, callerB.UserID)
	require.NoError(t, err)

	q := &recordingQueue{}
	uc := newSendUC(repo, userRepo, busadapter.NewMemoryBus(), q, chat.PresenceOffline, 0)

	_, err = uc.Execute(context.Background(), SendMessageInput{Caller: callerA, ConversationID: conv.ID})
	assert.ErrorIs(t, err, chat.ErrEmptyMessage)

	// No row, no broadcast, no bridge task.
	msgs, err := repo.ListMessages(context.Background(), conv.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, msgs)
	assert.Empty(t, q.tasks)
}

func TestSendMessagePublishOrder(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	conv, err := repo.GetOrCreateConversation(context.Background(), "co-1", callerA.UserID, callerB.UserID)
	require.NoError(t, err)

	bus := busadapter.NewMemoryBus()
	var events []string
	_, err = bus.Subscribe(context.Background(), chat.BusChannel, func(ctx context.Context, channel string, payload []byte) {
		env, err := chat.DecodeEnvelope(payload)
		require.NoError(t, err)
		events = append(events, env.Event)
	})
	require.NoError(t, err)

	uc := newSendUC(repo, userRepo, bus, &recordingQueue{}, chat.PresenceOnline, 1)
	m1, err := uc.Execute(context.Background(), SendMessageInput{Caller: callerA, ConversationID: conv.ID, Content: strPtr("m1")})
	require.NoError(t, err)
	assert.Equal(t, chat.MessageStatusSent, m1.Status)
	_, err = uc.Execute(context.Background(), SendMessageInput{Caller: callerA, ConversationID: conv.ID, Content: strPtr("m2")})
	require.NoError(t, err)

	// Full payload first, metadata event second, per send, in send order.
	assert.Equal(t, []string{
		chat.EventMessageNew, chat.EventConversationUpdated,
		chat.EventMessageNew, chat.EventConversationUpdated,
	}, events)
}

func TestSendMessageBridgesOfflineRecipient(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	conv, err := repo.GetOrCreateConversation(context.Background(), "co-1", callerA.UserID, callerB.UserID)
	require.NoError(t, err)

	q := &recordingQueue{}
	uc := newSendUC(repo, userRepo, busadapter.NewMemoryBus(), q, chat.PresenceOffline, 0)
	_, err = uc.Execute(context.Background(), SendMessageInput{Caller: callerA, ConversationID: conv.ID, Content: strPtr("hi")})
	require.NoError(t, err)

	require.Len(t, q.tasks, 1)
	assert.Equal(t, NotifyOfflineTaskType, q.tasks[0].Type)

	var p chat.NewMessageNotification
	require.NoError(t, json.Unmarshal(q.tasks[0].Payload, &p))
	assert.Equal(t, conv.ID, p.ConversationID)
	assert.Equal(t, callerB.UserID, p.RecipientID)
	assert.Equal(t, chat.PresenceOffline, p.RecipientStatus)
	assert.Equal(t, callerA.UserID, p.Sender.ID)
	assert.Equal(t, "co-1", p.CompanyID)
}

func TestSendMessageSkipsBridgeWhenRecipientConnected(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	conv, err := repo.GetOrCreateConversation(context.Background(), "co-1", callerA.UserID, callerB.UserID)
	require.NoError(t, err)

	// Connected locally.
	q := &recordingQueue{}
	uc := newSendUC(repo, userRepo, busadapter.NewMemoryBus(), q, chat.PresenceOffline, 1)
	_, err = uc.Execute(context.Background(), SendMessageInput{Caller: callerA, ConversationID: conv.ID, Content: strPtr("hi")})
	require.NoError(t, err)
	assert.Empty(t, q.tasks)

	// Connected to another instance: no local sockets, but status online.
	uc = newSendUC(repo, userRepo, busadapter.NewMemoryBus(), q, chat.PresenceOnline, 0)
	_, err = uc.Execute(context.Background(), SendMessageInput{Caller: callerA, ConversationID: conv.ID, Content: strPtr("again")})
	require.NoError(t, err)
	assert.Empty(t, q.tasks)
}

func TestSendMessageCrossTenantIsNotFound(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	conv, err := repo.GetOrCreateConversation(context.Background(), "co-1", callerA.UserID, callerB.UserID)
	require.NoError(t, err)

	uc := newSendUC(repo, userRepo, busadapter.NewMemoryBus(), &recordingQueue{}, chat.PresenceOffline, 0)
	_, err = uc.Execute(context.Background(), SendMessageInput{Caller: caller2, ConversationID: conv.ID, Content: strPtr("hi")})
	assert.ErrorIs(t, err, chat.ErrNotFound)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	conv, err := repo.GetOrCreateConversation(context.Background(), "co-1", callerA.UserID, callerB.UserID)
	require.NoError(t, err)

	send := newSendUC(repo, userRepo, busadapter.NewMemoryBus(), &recordingQueue{}, chat.PresenceOnline, 1)
	_, err = send.Execute(context.Background(), SendMessageInput{Caller: callerA, ConversationID: conv.ID, Content: strPtr("one")})
	require.NoError(t, err)
	_, err = send.Execute(context.Background(), SendMessageInput{Caller: callerA, ConversationID: conv.ID, Content: strPtr("two")})
	require.NoError(t, err)

	uc := NewMarkReadUseCase(repo, busadapter.NewMemoryBus())
	first, err := uc.Execute(context.Background(), MarkReadInput{Caller: callerB, ConversationID: conv.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Updated)

	second, err := uc.Execute(context.Background(), MarkReadInput{Caller: callerB, ConversationID: conv.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.Updated)

	msgs, err := repo.ListMessages(context.Background(), conv.ID, 10)
	require.NoError(t, err)
	for _, m := range msgs {
		assert.Equal(t, chat.MessageStatusRead, m.Status)
		assert.NotNil(t, m.ReadAt)
	}
}

func TestMarkReadLeavesOwnMessagesAlone(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	conv, err := repo.GetOrCreateConversation(context.Background(), "co-1", callerA.UserID, callerB.UserID)
	require.NoError(t, err)

	send := newSendUC(repo, userRepo, busadapter.NewMemoryBus(), &recordingQueue{}, chat.PresenceOnline, 1)
	_, err = send.Execute(context.Background(), SendMessageInput{Caller: callerA, ConversationID: conv.ID, Content: strPtr("from a")})
	require.NoError(t, err)

	uc := NewMarkReadUseCase(repo, busadapter.NewMemoryBus())
	res, err := uc.Execute(context.Background(), MarkReadInput{Caller: callerA, ConversationID: conv.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(0), res.Updated)

	msgs, err := repo.ListMessages(context.Background(), conv.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, chat.MessageStatusSent, msgs[0].Status)
}

func TestGetMessagesValidatesLimit(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	conv, err := repo.GetOrCreateConversation(context.Background(), "co-1", callerA.UserID, callerB.UserID)
	require.NoError(t, err)
	uc := NewGetMessagesUseCase(repo)

	_, err = uc.Execute(context.Background(), GetMessagesInput{Caller: callerA, ConversationID: conv.ID, Limit: 0})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = uc.Execute(context.Background(), GetMessagesInput{Caller: callerA, ConversationID: conv.ID, Limit: 500})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGetMessagesNewestFirst(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	conv, err := repo.GetOrCreateConversation(context.Background(), "co-1", callerA.UserID, callerB.UserID)
	require.NoError(t, err)

	send := newSendUC(repo, userRepo, busadapter.NewMemoryBus(), &recordingQueue{}, chat.PresenceOnline, 1)
	for _, body := range []string{"first", "second", "third"} {
		_, err = send.Execute(context.Background(), SendMessageInput{Caller: callerA, ConversationID: conv.ID, Content: strPtr(body)})
		require.NoError(t, err)
	}

	uc := NewGetMessagesUseCase(repo)
	msgs, err := uc.Execute(context.Background(), GetMessagesInput{Caller: callerB, ConversationID: conv.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "third", *msgs[0].Content)
	assert.Equal(t, "second", *msgs[1].Content)
}

func TestJoinRoomChecksMembership(t *testing.T) {
	repo := repoadapter.NewMemoryChatRepository()
	userRepo := useradapter.NewMemoryUserRepository()
	seedUsers(repo, userRepo)
	conv, err := repo.GetOrCreateConversation(context.Background(), "co-1", callerA.UserID, callerB.UserID)
	require.NoError(t, err)
	repo.AddChannelMember("chan-1", callerA.UserID)

	uc := NewJoinRoomUseCase(repo)

	assert.NoError(t, uc.Execute(context.Background(), JoinRoomInput{Caller: callerA, ConversationID: conv.ID}))
	assert.NoError(t, uc.Execute(context.Background(), JoinRoomInput{Caller: callerA, ChannelID: "chan-1"}))

	err = uc.Execute(context.Background(), JoinRoomInput{Caller: callerB, ChannelID: "chan-1"})
	assert.ErrorIs(t, err, chat.ErrNotParticipant)

	err = uc.Execute(context.Background(), JoinRoomInput{Caller: caller2, ConversationID: conv.ID})
	assert.ErrorIs(t, err, chat.ErrNotFound)

	err = uc.Execute(context.Background(), JoinRoomInput{Caller: callerA})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = uc.Execute(context.Background(), JoinRoomInput{Caller: callerA, ConversationID: conv.ID, ChannelID: "chan-1"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
