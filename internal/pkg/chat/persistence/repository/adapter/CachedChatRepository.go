package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	cacheport "teamchat/internal/infrastructure/cache/port"
	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
)

const (
	conversationListTTL = 60 * time.Second
	messagePageTTL      = 30 * time.Second
)

// CachedChatRepository decorates a ChatRepository with a read-through cache
// for conversation lists and recent-message pages. The cache is advisory:
// every cache failure degrades to the inner store, and entries are
// invalidated, never updated in place, on each write to the rows they
// summarize.
type CachedChatRepository struct {
	inner repository.ChatRepository
	cache cacheport.Cache
}

func NewCachedChatRepository(inner repository.ChatRepository, cache cacheport.Cache) *CachedChatRepository {
	return &CachedChatRepository{inner: inner, cache: cache}
}

var _ repository.ChatRepository = (*CachedChatRepository)(nil)

func conversationListKey(companyID, userID string) string {
	return fmt.Sprintf("chat:conversations:%s:%s", companyID, userID)
}

func messagePageKey(conversationID string) string {
	return fmt.Sprintf("chat:messages:%s", conversationID)
}

func (r *CachedChatRepository) ListConversations(ctx context.Context, companyID, userID string) ([]chat.ConversationSummary, error) {
	key := conversationListKey(companyID, userID)
	if raw, err := r.cache.Get(ctx, key); err == nil {
		var cached []chat.ConversationSummary
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			return cached, nil
		}
		// Corrupt entry: drop it and fall through to the store.
		r.invalidate(ctx, key)
	} else if !errors.Is(err, cacheport.ErrMiss) {
		log.Printf("chat cache: get %s: %v", key, err)
	}

	out, err := r.inner.ListConversations(ctx, companyID, userID)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, out, conversationListTTL)
	return out, nil
}

func (r *CachedChatRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error) {
	if limit <= 0 || limit > repository.MaxMessagePage {
		limit = repository.MaxMessagePage
	}

	// One cached page per conversation, at the hard cap; smaller requests
	// slice it. This keeps invalidation a single-key delete.
	key := messagePageKey(conversationID)
	if raw, err := r.cache.Get(ctx, key); err == nil {
		var cached []chat.Message
		if jsonErr := json.Unmarshal([]byte(raw), &cached); jsonErr == nil {
			if len(cached) > limit {
				cached = cached[:limit]
			}
			return cached, nil
		}
		r.invalidate(ctx, key)
	} else if !errors.Is(err, cacheport.ErrMiss) {
		log.Printf("chat cache: get %s: %v", key, err)
	}

	page, err := r.inner.ListMessages(ctx, conversationID, repository.MaxMessagePage)
	if err != nil {
		return nil, err
	}
	r.store(ctx, key, page, messagePageTTL)
	if len(page) > limit {
		page = page[:limit]
	}
	return page, nil
}

func (r *CachedChatRepository) GetOrCreateConversation(ctx context.Context, companyID, userA, userB string) (*chat.Conversation, error) {
	conv, err := r.inner.GetOrCreateConversation(ctx, companyID, userA, userB)
	if err != nil {
		return nil, err
	}
	// A fresh row changes both participants' list views.
	r.invalidate(ctx,
		conversationListKey(companyID, conv.User1ID),
		conversationListKey(companyID, conv.User2ID),
	)
	return conv, nil
}

func (r *CachedChatRepository) SaveMessage(ctx context.Context, conv chat.Conversation, m chat.Message) (*chat.Message, error) {
	saved, err := r.inner.SaveMessage(ctx, conv, m)
	if err != nil {
		return nil, err
	}
	r.invalidate(ctx,
		messagePageKey(conv.ID),
		conversationListKey(conv.CompanyID, conv.User1ID),
		conversationListKey(conv.CompanyID, conv.User2ID),
	)
	return saved, nil
}

func (r *CachedChatRepository) MarkRead(ctx context.Context, conv chat.Conversation, readerID string, at time.Time) (int64, error) {
	n, err := r.inner.MarkRead(ctx, conv, readerID, at)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.invalidate(ctx,
			messagePageKey(conv.ID),
			conversationListKey(conv.CompanyID, conv.User1ID),
			conversationListKey(conv.CompanyID, conv.User2ID),
		)
	}
	return n, nil
}

func (r *CachedChatRepository) FindConversation(ctx context.Context, conversationID, companyID string) (*chat.Conversation, error) {
	return r.inner.FindConversation(ctx, conversationID, companyID)
}

func (r *CachedChatRepository) IsChannelMember(ctx context.Context, channelID, userID string) (bool, error) {
	return r.inner.IsChannelMember(ctx, channelID, userID)
}

func (r *CachedChatRepository) store(ctx context.Context, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, key, string(raw), ttl); err != nil {
		log.Printf("chat cache: set %s: %v", key, err)
	}
}

func (r *CachedChatRepository) invalidate(ctx context.Context, keys ...string) {
	if _, err := r.cache.Del(ctx, keys...); err != nil {
		log.Printf("chat cache: del %v: %v", keys, err)
	}
}
