package chat

import "time"

// PresenceStatus is the coarse connectivity status of an identity.
type PresenceStatus string

const (
	PresenceOnline  PresenceStatus = "online"
	PresenceAway    PresenceStatus = "away"
	PresenceOffline PresenceStatus = "offline"
)

// Presence is the persisted per-user status row. It is mutated only by the
// presence manager, never directly by REST handlers.
type Presence struct {
	UserID    string         `json:"userId"`
	CompanyID string         `json:"companyId"`
	Status    PresenceStatus `json:"status"`
	UpdatedAt time.Time      `json:"updatedAt"`
}
