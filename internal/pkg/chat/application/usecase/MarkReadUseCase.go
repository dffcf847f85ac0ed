package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	busport "teamchat/internal/infrastructure/bus/port"
	"teamchat/internal/infrastructure/realtime"
	authport "teamchat/internal/pkg/auth/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
)

// MarkReadInput identifies the conversation whose incoming messages the caller
// has read.
type MarkReadInput struct {
	Caller         authport.Identity
	ConversationID string
}

// MarkReadResult reports how many messages transitioned; zero means the call
// was a no-op repeat.
type MarkReadResult struct {
	Updated int64
}

// MarkReadUseCase drives the idempotent read transition. The REST path and
// the live websocket path both land here, so their race resolves to the same
// final state regardless of order.
type MarkReadUseCase struct {
	Repo repository.ChatRepository
	Bus  busport.Bus
}

func NewMarkReadUseCase(repo repository.ChatRepository, bus busport.Bus) *MarkReadUseCase {
	return &MarkReadUseCase{Repo: repo, Bus: bus}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, in MarkReadInput) (*MarkReadResult, error) {
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

	n, err := uc.Repo.MarkRead(ctx, *conv, in.Caller.UserID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	if n > 0 {
		room := realtime.ConversationRoom(conv.ID)
		if payload, err := chat.WrapEvent(room, chat.EventConversationUpdated, chat.NewConversationUpdatedEvent(conv.ID)); err == nil {
			if err := uc.Bus.Publish(ctx, chat.BusChannel, payload); err != nil {
				log.Printf("chat: publish read update for %s: %v", conv.ID, err)
			}
		}
	}

	return &MarkReadResult{Updated: n}, nil
}
