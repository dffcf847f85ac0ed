package adapter

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
)

// MemoryChatRepository is an in-process ChatRepository with the same contract
// as the Postgres adapter: canonical pairing, denormalized previews, monotonic
// read transitions. It backs tests and single-node development.
type MemoryChatRepository struct {
	mu            sync.Mutex
	conversations map[string]*chat.Conversation
	messages      map[string][]chat.Message // conversationID -> append order
	users         map[string]chat.UserSummary
	channels      map[string]map[string]struct{} // channelID -> member set
}

func NewMemoryChatRepository() *MemoryChatRepository {
	return &MemoryChatRepository{
		conversations: make(map[string]*chat.Conversation),
		messages:      make(map[string][]chat.Message),
		users:         make(map[string]chat.UserSummary),
		channels:      make(map[string]map[string]struct{}),
	}
}

var _ repository.ChatRepository = (*MemoryChatRepository)(nil)

// AddUser seeds a profile summary for conversation listings.
func (r *MemoryChatRepository) AddUser(u chat.UserSummary) {
	r.mu.Lock()
	r.users[u.ID] = u
	r.mu.Unlock()
}

// AddChannelMember seeds channel membership for gateway join checks.
func (r *MemoryChatRepository) AddChannelMember(channelID, userID string) {
	r.mu.Lock()
	if r.channels[channelID] == nil {
		r.channels[channelID] = make(map[string]struct{})
	}
	r.channels[channelID][userID] = struct{}{}
	r.mu.Unlock()
}

func (r *MemoryChatRepository) GetOrCreateConversation(ctx context.Context, companyID, userA, userB string) (*chat.Conversation, error) {
	u1, u2 := chat.NormalizePair(userA, userB)

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, c := range r.conversations {
		if c.CompanyID == companyID && c.User1ID == u1 && c.User2ID == u2 {
			cp := *c
			return &cp, nil
		}
	}

	now := time.Now().UTC()
	conv := &chat.Conversation{
		ID:        uuid.NewString(),
		CompanyID: companyID,
		User1ID:   u1,
		User2ID:   u2,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.conversations[conv.ID] = conv
	cp := *conv
	return &cp, nil
}

func (r *MemoryChatRepository) FindConversation(ctx context.Context, conversationID, companyID string) (*chat.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conversations[conversationID]
	if !ok || c.CompanyID != companyID {
		return nil, chat.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *MemoryChatRepository) ListConversations(ctx context.Context, companyID, userID string) ([]chat.ConversationSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []chat.ConversationSummary
	for _, c := range r.conversations {
		if c.CompanyID != companyID || !c.HasParticipant(userID) {
			continue
		}
		s := chat.ConversationSummary{Conversation: *c}
		s.Participants[0] = r.users[c.User1ID]
		s.Participants[1] = r.users[c.User2ID]
		for _, m := range r.messages[c.ID] {
			if m.SenderID != userID && m.Status != chat.MessageStatusRead {
				s.UnreadCount++
			}
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].CreatedAt, out[j].CreatedAt
		if out[i].LastMessageAt != nil {
			ti = *out[i].LastMessageAt
		}
		if out[j].LastMessageAt != nil {
			tj = *out[j].LastMessageAt
		}
		return ti.After(tj)
	})
	return out, nil
}

func (r *MemoryChatRepository) SaveMessage(ctx context.Context, conv chat.Conversation, m chat.Message) (*chat.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.conversations[conv.ID]
	if !ok {
		return nil, chat.ErrNotFound
	}

	m.ID = uuid.NewString()
	r.messages[conv.ID] = append(r.messages[conv.ID], m)

	preview := m.Preview()
	at := m.CreatedAt
	stored.LastMessage = &preview
	stored.LastMessageAt = &at
	stored.UpdatedAt = at

	cp := m
	return &cp, nil
}

func (r *MemoryChatRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error) {
	if limit <= 0 || limit > repository.MaxMessagePage {
		limit = repository.MaxMessagePage
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.messages[conversationID]
	out := make([]chat.Message, 0, len(stored))
	// Newest first, matching the Postgres adapter's fixed order.
	for i := len(stored) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, stored[i])
	}
	return out, nil
}

func (r *MemoryChatRepository) MarkRead(ctx context.Context, conv chat.Conversation, readerID string, at time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	msgs := r.messages[conv.ID]
	for i := range msgs {
		if msgs[i].SenderID == readerID {
			continue
		}
		if msgs[i].MarkRead(at) {
			n++
		}
	}
	return n, nil
}

func (r *MemoryChatRepository) IsChannelMember(ctx context.Context, channelID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	members, ok := r.channels[channelID]
	if !ok {
		return false, nil
	}
	_, member := members[userID]
	return member, nil
}

// MemoryPresenceRepository is the in-process PresenceRepository counterpart.
type MemoryPresenceRepository struct {
	mu      sync.Mutex
	rows    map[string]chat.Presence
	members map[string]map[string]struct{} // companyID -> user ids
}

func NewMemoryPresenceRepository() *MemoryPresenceRepository {
	return &MemoryPresenceRepository{
		rows:    make(map[string]chat.Presence),
		members: make(map[string]map[string]struct{}),
	}
}

var _ repository.PresenceRepository = (*MemoryPresenceRepository)(nil)

// AddMember seeds company membership so listings cover identities that have
// never connected, matching the Postgres adapter's member join.
func (r *MemoryPresenceRepository) AddMember(companyID, userID string) {
	r.mu.Lock()
	if r.members[companyID] == nil {
		r.members[companyID] = make(map[string]struct{})
	}
	r.members[companyID][userID] = struct{}{}
	r.mu.Unlock()
}

func (r *MemoryPresenceRepository) Upsert(ctx context.Context, p chat.Presence) error {
	r.mu.Lock()
	r.rows[p.UserID] = p
	r.mu.Unlock()
	return nil
}

func (r *MemoryPresenceRepository) Get(ctx context.Context, userID string) (*chat.Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[userID]
	if !ok {
		return nil, nil
	}
	cp := p
	return &cp, nil
}

func (r *MemoryPresenceRepository) ListByCompany(ctx context.Context, companyID string) ([]chat.Presence, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{})
	var out []chat.Presence
	for userID := range r.members[companyID] {
		seen[userID] = struct{}{}
		if p, ok := r.rows[userID]; ok {
			out = append(out, p)
			continue
		}
		// Never connected: reported as offline, not omitted.
		out = append(out, chat.Presence{UserID: userID, CompanyID: companyID, Status: chat.PresenceOffline})
	}
	for _, p := range r.rows {
		if p.CompanyID != companyID {
			continue
		}
		if _, ok := seen[p.UserID]; ok {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}
