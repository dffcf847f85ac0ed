package repository

import (
	"context"

	chat "teamchat/internal/pkg/chat/application/domain"
)

// PresenceRepository persists coarse per-user connectivity status. Rows are
// written only by the presence manager.
type PresenceRepository interface {
	// Upsert writes the status row, replacing any previous status.
	Upsert(ctx context.Context, p chat.Presence) error

	// Get returns the last persisted presence for userID, or nil when the
	// user has never connected (treated as offline by callers).
	Get(ctx context.Context, userID string) (*chat.Presence, error)

	// ListByCompany returns the presence rows of every known identity in the
	// company, backing the on-connect snapshot reply.
	ListByCompany(ctx context.Context, companyID string) ([]chat.Presence, error)
}
