package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// BusChannel is the single fan-out channel every gateway instance subscribes
// to. Envelopes published here carry the target room, so delivery stays scoped
// even though the channel is shared; using one channel keeps per-conversation
// publication order intact.
const BusChannel = "chat:events"

// NotificationChannel is where the delivery bridge republishes payloads for
// the external push/email collaborator.
const NotificationChannel = "events:new_message"

// Event names carried in envelopes and in client-facing frames.
const (
	EventMessageNew          = "chat:message:new"
	EventConversationUpdated = "chat:conversation:updated"
	EventUserStatus          = "user:status:update"
	EventPresenceState       = "presence:state"
)

// Envelope is the wire format on the bus: a target room plus a client-ready
// frame. The frame itself is tagged with the event type, so the gateway can
// forward Payload to sockets untouched after validating the envelope.
type Envelope struct {
	Room    string          `json:"room"`
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

var knownEvents = map[string]struct{}{
	EventMessageNew:          {},
	EventConversationUpdated: {},
	EventUserStatus:          {},
}

// WrapEvent marshals payload into an Envelope addressed at room.
func WrapEvent(room, event string, payload any) ([]byte, error) {
	if room == "" || event == "" {
		return nil, errors.New("chat: envelope requires room and event")
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("chat: encode %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Room: room, Event: event, Payload: raw})
}

// DecodeEnvelope validates an incoming bus payload before the gateway acts on
// any field. Unknown event names are rejected here, at the boundary.
func DecodeEnvelope(b []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, fmt.Errorf("chat: decode envelope: %w", err)
	}
	if env.Room == "" || env.Event == "" {
		return nil, errors.New("chat: envelope missing room or event")
	}
	if _, ok := knownEvents[env.Event]; !ok {
		return nil, fmt.Errorf("chat: unknown event %q", env.Event)
	}
	return &env, nil
}

// MessageNewEvent is the full-payload frame sent to a conversation or channel
// room when a message is created.
type MessageNewEvent struct {
	Type           string  `json:"type"`
	ConversationID string  `json:"conversationId"`
	Message        Message `json:"message"`
}

func NewMessageNewEvent(conversationID string, m Message) MessageNewEvent {
	return MessageNewEvent{Type: EventMessageNew, ConversationID: conversationID, Message: m}
}

// ConversationUpdatedEvent is the lighter companion frame that lets idle list
// views refresh metadata without re-fetching message payloads.
type ConversationUpdatedEvent struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversationId"`
}

func NewConversationUpdatedEvent(conversationID string) ConversationUpdatedEvent {
	return ConversationUpdatedEvent{Type: EventConversationUpdated, ConversationID: conversationID}
}

// StatusUpdateEvent announces a presence transition to the company room.
type StatusUpdateEvent struct {
	Type      string         `json:"type"`
	UserID    string         `json:"userId"`
	Status    PresenceStatus `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewStatusUpdateEvent(userID string, status PresenceStatus, at time.Time) StatusUpdateEvent {
	return StatusUpdateEvent{Type: EventUserStatus, UserID: userID, Status: status, Timestamp: at}
}

// PresenceStateFrame is the private on-connect reply carrying the status of
// every other known identity in the caller's company.
type PresenceStateFrame struct {
	Type     string     `json:"type"`
	Statuses []Presence `json:"statuses"`
}

func NewPresenceStateFrame(statuses []Presence) PresenceStateFrame {
	return PresenceStateFrame{Type: EventPresenceState, Statuses: statuses}
}

// NewMessageNotification is the fire-and-forget payload handed to the external
// notification collaborator when the recipient has no live connection.
type NewMessageNotification struct {
	ConversationID  string         `json:"conversationId"`
	Message         Message        `json:"message"`
	Sender          UserSummary    `json:"sender"`
	RecipientID     string         `json:"recipientId"`
	RecipientStatus PresenceStatus `json:"recipientStatus"`
	CompanyID       string         `json:"companyId"`
}
