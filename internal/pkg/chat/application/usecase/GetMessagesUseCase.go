package usecase

import (
	"context"
	"errors"
	"fmt"

	authport "teamchat/internal/pkg/auth/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
)

// GetMessagesInput carries parameters to fetch a page of a conversation.
type GetMessagesInput struct {
	Caller         authport.Identity
	ConversationID string
	Limit          int
}

// GetMessagesUseCase fetches messages newest-first for a conversation the
// caller participates in. Authorization happens here, not in the gateway.
type GetMessagesUseCase struct {
	Repo repository.ChatRepository
}

func NewGetMessagesUseCase(repo repository.ChatRepository) *GetMessagesUseCase {
	return &GetMessagesUseCase{Repo: repo}
}

func (uc *GetMessagesUseCase) Execute(ctx context.Context, in GetMessagesInput) ([]chat.Message, error) {
	if in.Limit < 1 || in.Limit > repository.MaxMessagePage {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", ErrInvalidInput, repository.MaxMessagePage)
	}

	conv, err := uc.Repo.FindConversation(ctx, in.ConversationID, in.Caller.CompanyID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	if !conv.HasParticipant(in.Caller.UserID) {
		// Indistinguishable from a conversation that does not exist.
		return nil, chat.ErrNotFound
	}

	msgs, err := uc.Repo.ListMessages(ctx, in.ConversationID, in.Limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msgs, nil
}

// wrapStoreErr keeps chat.ErrNotFound intact and classifies everything else as
// a persistence failure.
func wrapStoreErr(err error) error {
	if errors.Is(err, chat.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrPersistence, err)
}
