package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

var _ repository.ChatRepository = (*PgChatRepository)(nil)

const conversationColumns = `
	c.id::text, c.company_id::text, c.user1_id::text, c.user2_id::text,
	c.last_message, c.last_message_at, c.created_at, c.updated_at`

func (r *PgChatRepository) GetOrCreateConversation(ctx context.Context, companyID, userA, userB string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	u1, u2 := chat.NormalizePair(userA, userB)
	now := time.Now().UTC()

	// Insert-or-fetch: DO NOTHING keeps concurrent first-message races from
	// both participants safe, the re-select returns whichever row won.
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.conversation (company_id, user1_id, user2_id, created_at, updated_at)
		VALUES ($1::uuid, $2::uuid, $3::uuid, $4, $4)
		ON CONFLICT (company_id, user1_id, user2_id) DO NOTHING
	`, companyID, u1, u2, now)
	if err != nil {
		return nil, err
	}

	var conv chat.Conversation
	err = r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM chat.conversation c
		WHERE c.company_id = $1::uuid AND c.user1_id = $2::uuid AND c.user2_id = $3::uuid
	`, companyID, u1, u2).Scan(
		&conv.ID, &conv.CompanyID, &conv.User1ID, &conv.User2ID,
		&conv.LastMessage, &conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *PgChatRepository) FindConversation(ctx context.Context, conversationID, companyID string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var conv chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT `+conversationColumns+`
		FROM chat.conversation c
		WHERE c.id = $1::uuid AND c.company_id = $2::uuid
	`, conversationID, companyID).Scan(
		&conv.ID, &conv.CompanyID, &conv.User1ID, &conv.User2ID,
		&conv.LastMessage, &conv.LastMessageAt, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, chat.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *PgChatRepository) ListConversations(ctx context.Context, companyID, userID string) ([]chat.ConversationSummary, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+conversationColumns+`,
			u1.email, u1.first_name, u1.last_name, u1.avatar_url,
			u2.email, u2.first_name, u2.last_name, u2.avatar_url,
			(SELECT COUNT(*) FROM chat.message m
			 WHERE m.conversation_id = c.id AND m.sender_id <> $2::uuid AND m.status <> 'read')
		FROM chat.conversation c
		JOIN core.app_user u1 ON u1.id = c.user1_id
		JOIN core.app_user u2 ON u2.id = c.user2_id
		WHERE c.company_id = $1::uuid AND (c.user1_id = $2::uuid OR c.user2_id = $2::uuid)
		ORDER BY c.last_message_at DESC NULLS LAST, c.created_at DESC
	`, companyID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.ConversationSummary
	for rows.Next() {
		var s chat.ConversationSummary
		if err := rows.Scan(
			&s.ID, &s.CompanyID, &s.User1ID, &s.User2ID,
			&s.LastMessage, &s.LastMessageAt, &s.CreatedAt, &s.UpdatedAt,
			&s.Participants[0].Email, &s.Participants[0].FirstName, &s.Participants[0].LastName, &s.Participants[0].AvatarURL,
			&s.Participants[1].Email, &s.Participants[1].FirstName, &s.Participants[1].LastName, &s.Participants[1].AvatarURL,
			&s.UnreadCount,
		); err != nil {
			return nil, err
		}
		s.Participants[0].ID = s.User1ID
		s.Participants[1].ID = s.User2ID
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PgChatRepository) SaveMessage(ctx context.Context, conv chat.Conversation, m chat.Message) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO chat.message (
			conversation_id, sender_id, content, msg_type, status, file_url, file_metadata, created_at, updated_at
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, COALESCE($7::json, NULL), $8, $8)
		RETURNING id::text
	`, m.ConversationID, m.SenderID, m.Content, m.Type, m.Status, m.FileURL, m.FileMetadata, m.CreatedAt).Scan(&m.ID)
	if err != nil {
		return nil, err
	}

	preview := m.Preview()
	_, err = tx.Exec(ctx, `
		UPDATE chat.conversation
		SET last_message = $2, last_message_at = $3, updated_at = $3
		WHERE id = $1::uuid
	`, conv.ID, preview, m.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *PgChatRepository) ListMessages(ctx context.Context, conversationID string, limit int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if limit <= 0 || limit > repository.MaxMessagePage {
		limit = repository.MaxMessagePage
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, conversation_id::text, sender_id::text, content, msg_type, status,
		       file_url, file_metadata, created_at, updated_at, read_at
		FROM chat.message
		WHERE conversation_id = $1::uuid
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, conversationID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var m chat.Message
		if err := rows.Scan(
			&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.Type, &m.Status,
			&m.FileURL, &m.FileMetadata, &m.CreatedAt, &m.UpdatedAt, &m.ReadAt,
		); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

func (r *PgChatRepository) MarkRead(ctx context.Context, conv chat.Conversation, readerID string, at time.Time) (int64, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgChatRepository: nil pool")
	}
	// The status <> 'read' guard makes the call idempotent and keeps the
	// transition monotonic: already-read rows are never touched again.
	ct, err := r.pool.Exec(ctx, `
		UPDATE chat.message
		SET status = 'read', read_at = $3, updated_at = $3
		WHERE conversation_id = $1::uuid AND sender_id <> $2::uuid AND status <> 'read'
	`, conv.ID, readerID, at)
	if err != nil {
		return 0, err
	}
	return ct.RowsAffected(), nil
}

func (r *PgChatRepository) IsChannelMember(ctx context.Context, channelID, userID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgChatRepository: nil pool")
	}
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chat.channel_member
			WHERE channel_id = $1::uuid AND user_id = $2::uuid
		)
	`, channelID, userID).Scan(&exists)
	return exists, err
}
