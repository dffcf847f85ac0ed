package chat

import "time"

// Conversation is a direct 1:1 thread between two identities within one
// company. The participant pair is stored in canonical order (User1ID <
// User2ID) so each unordered pair maps to at most one row per company.
type Conversation struct {
	ID            string     `json:"id"`
	CompanyID     string     `json:"companyId"`
	User1ID       string     `json:"user1Id"`
	User2ID       string     `json:"user2Id"`
	LastMessage   *string    `json:"lastMessage"`
	LastMessageAt *time.Time `json:"lastMessageAt"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// NormalizePair returns the two user ids in canonical order.
func NormalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

// HasParticipant tells whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	if c == nil {
		return false
	}
	return c.User1ID == userID || c.User2ID == userID
}

// OtherParticipant returns the participant that is not userID.
func (c *Conversation) OtherParticipant(userID string) string {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// UserSummary is the profile projection embedded in conversation listings.
type UserSummary struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	AvatarURL *string `json:"avatarUrl"`
}

// ConversationSummary is a conversation enriched for list views: both
// participants' profiles and the requester's unread count.
type ConversationSummary struct {
	Conversation
	Participants [2]UserSummary `json:"participants"`
	UnreadCount  int64          `json:"unreadCount"`
}
