package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewMessageRequiresContentOrFile(t *testing.T) {
	_, err := NewMessage(Message{ConversationID: "c1", SenderID: "u1"})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = NewMessage(Message{ConversationID: "c1", SenderID: "u1", Content: strPtr("   ")})
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = NewMessage(Message{ConversationID: "c1", SenderID: "u1", Content: strPtr(""), FileURL: strPtr("")})
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestNewMessageNormalizes(t *testing.T) {
	m, err := NewMessage(Message{ConversationID: "c1", SenderID: "u1", Content: strPtr("  hi  ")})
	require.NoError(t, err)
	assert.Equal(t, "hi", *m.Content)
	assert.Equal(t, MessageTypeText, m.Type)
	assert.Equal(t, MessageStatusSent, m.Status)
	assert.False(t, m.CreatedAt.IsZero())

	m, err = NewMessage(Message{ConversationID: "c1", SenderID: "u1", FileURL: strPtr("https://files.test/a.pdf")})
	require.NoError(t, err)
	assert.Nil(t, m.Content)
	assert.Equal(t, MessageTypeFile, m.Type)
}

func TestNewMessageRequiresIdentity(t *testing.T) {
	_, err := NewMessage(Message{SenderID: "u1", Content: strPtr("hi")})
	assert.ErrorIs(t, err, ErrInvalidMessage)
	_, err = NewMessage(Message{ConversationID: "c1", Content: strPtr("hi")})
	assert.ErrorIs(t, err, ErrInvalidMessage)
}

func TestStatusTransitionIsMonotonic(t *testing.T) {
	assert.True(t, MessageStatusSent.CanTransition(MessageStatusDelivered))
	assert.True(t, MessageStatusSent.CanTransition(MessageStatusRead))
	assert.True(t, MessageStatusRead.CanTransition(MessageStatusRead))
	assert.False(t, MessageStatusRead.CanTransition(MessageStatusSent))
	assert.False(t, MessageStatusRead.CanTransition(MessageStatusDelivered))
	assert.False(t, MessageStatusDelivered.CanTransition(MessageStatusSent))
}

func TestMarkReadAdvancesOnceAndOnlyForward(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	m := Message{Status: MessageStatusSent}
	require.True(t, m.MarkRead(at))
	assert.Equal(t, MessageStatusRead, m.Status)
	require.NotNil(t, m.ReadAt)
	assert.Equal(t, at, *m.ReadAt)
	assert.Equal(t, at, m.UpdatedAt)

	// Second mark is a no-op: the original read time sticks.
	later := at.Add(time.Hour)
	assert.False(t, m.MarkRead(later))
	assert.Equal(t, at, *m.ReadAt)

	d := Message{Status: MessageStatusDelivered}
	assert.True(t, d.MarkRead(at))

	unknown := Message{Status: MessageStatus("bogus")}
	assert.False(t, unknown.MarkRead(at))
	assert.Nil(t, unknown.ReadAt)
}

func TestNormalizePair(t *testing.T) {
	a, b := NormalizePair("bbb", "aaa")
	assert.Equal(t, "aaa", a)
	assert.Equal(t, "bbb", b)

	a, b = NormalizePair("aaa", "bbb")
	assert.Equal(t, "aaa", a)
	assert.Equal(t, "bbb", b)
}

func TestDecodeEnvelopeValidatesAtBoundary(t *testing.T) {
	raw, err := WrapEvent("chat:c1", EventConversationUpdated, NewConversationUpdatedEvent("c1"))
	require.NoError(t, err)

	env, err := DecodeEnvelope(raw)
	require.NoError(t, err)
	assert.Equal(t, "chat:c1", env.Room)
	assert.Equal(t, EventConversationUpdated, env.Event)

	_, err = DecodeEnvelope([]byte(`{"room":"","event":"chat:message:new","payload":{}}`))
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte(`{"room":"chat:c1","event":"made:up","payload":{}}`))
	assert.Error(t, err)

	_, err = DecodeEnvelope([]byte(`not-json`))
	assert.Error(t, err)
}
