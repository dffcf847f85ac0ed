package repository

import (
	"context"
	"time"

	chat "teamchat/internal/pkg/chat/application/domain"
)

// ChatRepository defines persistence operations for the chat domain. It is the
// only path through which conversation and message rows are mutated.
type ChatRepository interface {
	// GetOrCreateConversation normalizes the pair into canonical order,
	// selects an existing row, and inserts only if absent. It must be safe
	// under concurrent first-message races from both participants.
	GetOrCreateConversation(ctx context.Context, companyID, userA, userB string) (*chat.Conversation, error)

	// FindConversation loads a conversation scoped by company. A conversation
	// belonging to another company is reported as chat.ErrNotFound, exactly
	// like one that does not exist.
	FindConversation(ctx context.Context, conversationID, companyID string) (*chat.Conversation, error)

	// ListConversations returns the user's conversations, most recent
	// activity first, with participant profiles and unread counts.
	ListConversations(ctx context.Context, companyID, userID string) ([]chat.ConversationSummary, error)

	// SaveMessage persists a validated message with status "sent" and updates
	// the parent conversation's denormalized preview in the same operation.
	SaveMessage(ctx context.Context, conv chat.Conversation, m chat.Message) (*chat.Message, error)

	// ListMessages returns up to limit messages, newest first, hard-capped at
	// MaxMessagePage regardless of the requested limit.
	ListMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error)

	// MarkRead transitions every message authored by the other participant
	// and not already read to "read", stamping readAt. It reports the number
	// of rows transitioned; repeating the call is a zero-row no-op.
	MarkRead(ctx context.Context, conv chat.Conversation, readerID string, at time.Time) (int64, error)

	// IsChannelMember reports channel membership for gateway join checks.
	IsChannelMember(ctx context.Context, channelID, userID string) (bool, error)
}

// MaxMessagePage is the hard cap on a single message page.
const MaxMessagePage = 100
