package usecase

import (
	"context"
	"fmt"

	authport "teamchat/internal/pkg/auth/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
	users "teamchat/internal/repository/port"
)

// StartConversationInput identifies the target either directly or by email;
// email resolution is scoped to the caller's company.
type StartConversationInput struct {
	Caller       authport.Identity
	TargetUserID string
	TargetEmail  string
}

// StartConversationUseCase resolves the target identity and get-or-creates the
// direct conversation. Creation is lazy and idempotent: calling it for an
// existing pair returns the existing row.
type StartConversationUseCase struct {
	Repo  repository.ChatRepository
	Users users.UserRepository
}

func NewStartConversationUseCase(repo repository.ChatRepository, userRepo users.UserRepository) *StartConversationUseCase {
	return &StartConversationUseCase{Repo: repo, Users: userRepo}
}

func (uc *StartConversationUseCase) Execute(ctx context.Context, in StartConversationInput) (*chat.Conversation, error) {
	if in.TargetUserID == "" && in.TargetEmail == "" {
		return nil, fmt.Errorf("%w: targetUserId or targetEmail is required", ErrInvalidInput)
	}

	var target *users.User
	var err error
	if in.TargetUserID != "" {
		target, err = uc.Users.FindByIDInCompany(ctx, in.TargetUserID, in.Caller.CompanyID)
	} else {
		target, err = uc.Users.FindByEmailInCompany(ctx, in.TargetEmail, in.Caller.CompanyID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if target == nil {
		return nil, chat.ErrNotFound
	}
	if target.ID == in.Caller.UserID {
		return nil, chat.ErrSelfConversation
	}

	conv, err := uc.Repo.GetOrCreateConversation(ctx, in.Caller.CompanyID, in.Caller.UserID, target.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return conv, nil
}
