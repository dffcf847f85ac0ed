package usecase

import (
	"context"
	"fmt"

	authport "teamchat/internal/pkg/auth/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
)

// JoinRoomInput names exactly one of a conversation or a channel the caller
// wants to subscribe to.
type JoinRoomInput struct {
	Caller         authport.Identity
	ConversationID string
	ChannelID      string
}

// JoinRoomUseCase is the command-layer membership check the gateway relies on
// before joining a socket to a room; the room registry itself never verifies
// membership.
type JoinRoomUseCase struct {
	Repo repository.ChatRepository
}

func NewJoinRoomUseCase(repo repository.ChatRepository) *JoinRoomUseCase {
	return &JoinRoomUseCase{Repo: repo}
}

func (uc *JoinRoomUseCase) Execute(ctx context.Context, in JoinRoomInput) error {
	switch {
	case in.ConversationID != "" && in.ChannelID != "":
		return fmt.Errorf("%w: conversationId and channelId are mutually exclusive", ErrInvalidInput)
	case in.ConversationID != "":
		conv, err := uc.Repo.FindConversation(ctx, in.ConversationID, in.Caller.CompanyID)
		if err != nil {
			return wrapStoreErr(err)
		}
		if !conv.HasParticipant(in.Caller.UserID) {
			return chat.ErrNotParticipant
		}
		return nil
	case in.ChannelID != "":
		ok, err := uc.Repo.IsChannelMember(ctx, in.ChannelID, in.Caller.UserID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		if !ok {
			return chat.ErrNotParticipant
		}
		return nil
	default:
		return fmt.Errorf("%w: conversationId or channelId is required", ErrInvalidInput)
	}
}
