package chat

import (
	"strings"
	"time"
)

// MessageType classifies message content.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// MessageStatus is the delivery state of a message. Transitions are strictly
// monotonic: sent -> delivered -> read, never backward.
type MessageStatus string

const (
	MessageStatusSent      MessageStatus = "sent"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// statusRank orders statuses for the monotonicity guard.
var statusRank = map[MessageStatus]int{
	MessageStatusSent:      0,
	MessageStatusDelivered: 1,
	MessageStatusRead:      2,
}

// CanTransition reports whether moving from s to next respects the monotonic
// status order. Equal statuses are allowed so repeated marks stay idempotent.
func (s MessageStatus) CanTransition(next MessageStatus) bool {
	from, ok := statusRank[s]
	if !ok {
		return false
	}
	to, ok := statusRank[next]
	if !ok {
		return false
	}
	return to >= from
}

// Message is immutable once created except for its status and read timestamp.
type Message struct {
	ID             string        `json:"id"`
	ConversationID string        `json:"conversationId"`
	SenderID       string        `json:"senderId"`
	Content        *string       `json:"content"`
	Type           MessageType   `json:"type"`
	Status         MessageStatus `json:"status"`
	FileURL        *string       `json:"fileUrl"`
	FileMetadata   *string       `json:"fileMetadata"` // JSON string; nil if absent
	CreatedAt      time.Time     `json:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt"`
	ReadAt         *time.Time    `json:"readAt"`
}

// NewMessage validates and normalizes a message before persistence.
// A message with neither content nor file URL is rejected here, before any
// store access.
func NewMessage(m Message) (*Message, error) {
	if m.ConversationID == "" || m.SenderID == "" {
		return nil, ErrInvalidMessage
	}

	if m.Content != nil {
		trimmed := strings.TrimSpace(*m.Content)
		if trimmed == "" {
			m.Content = nil
		} else {
			m.Content = &trimmed
		}
	}
	if m.FileURL != nil && strings.TrimSpace(*m.FileURL) == "" {
		m.FileURL = nil
	}

	if m.Content == nil && m.FileURL == nil {
		return nil, ErrEmptyMessage
	}

	if m.Type == "" {
		if m.FileURL != nil && m.Content == nil {
			m.Type = MessageTypeFile
		} else {
			m.Type = MessageTypeText
		}
	}

	m.Status = MessageStatusSent
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	m.UpdatedAt = m.CreatedAt

	return &m, nil
}

// MarkRead advances the message to read at the given time. It reports whether
// the message changed: already-read messages and invalid transitions leave the
// message untouched and return false.
func (m *Message) MarkRead(at time.Time) bool {
	if m.Status == MessageStatusRead || !m.Status.CanTransition(MessageStatusRead) {
		return false
	}
	m.Status = MessageStatusRead
	m.ReadAt = &at
	m.UpdatedAt = at
	return true
}

// Preview derives the denormalized conversation preview from the message body.
func (m *Message) Preview() string {
	if m.Content != nil {
		const max = 120
		if len(*m.Content) > max {
			return (*m.Content)[:max]
		}
		return *m.Content
	}
	return "[file]"
}
