package usecase

import (
	"context"
	"fmt"

	authport "teamchat/internal/pkg/auth/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
)

// ListConversationsUseCase returns the caller's conversation list with
// participant profiles, unread counts and last-message previews.
type ListConversationsUseCase struct {
	Repo repository.ChatRepository
}

func NewListConversationsUseCase(repo repository.ChatRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{Repo: repo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, caller authport.Identity) ([]chat.ConversationSummary, error) {
	out, err := uc.Repo.ListConversations(ctx, caller.CompanyID, caller.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return out, nil
}
