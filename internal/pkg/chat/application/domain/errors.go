package chat

import "errors"

// Domain-level errors for chat behaviors.
//
// ErrNotFound deliberately covers both "the conversation does not exist" and
// "the requester is not a participant" (including cross-tenant lookups) so
// callers cannot enumerate membership boundaries.
var (
	ErrNotFound         = errors.New("chat: conversation not found")
	ErrNotParticipant   = errors.New("chat: user is not a participant in the conversation")
	ErrEmptyMessage     = errors.New("chat: empty message (no content or file)")
	ErrInvalidMessage   = errors.New("chat: conversation and sender are required")
	ErrSelfConversation = errors.New("chat: cannot open a conversation with yourself")
)
