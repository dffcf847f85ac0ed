package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "teamchat/internal/pkg/chat/application/domain"
	repository "teamchat/internal/pkg/chat/persistence/repository/port"
)

type PgPresenceRepository struct {
	pool *pgxpool.Pool
}

func NewPgPresenceRepository(pool *pgxpool.Pool) *PgPresenceRepository {
	return &PgPresenceRepository{pool: pool}
}

var _ repository.PresenceRepository = (*PgPresenceRepository)(nil)

func (r *PgPresenceRepository) Upsert(ctx context.Context, p chat.Presence) error {
	if r == nil || r.pool == nil {
		return errors.New("PgPresenceRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chat.presence (user_id, company_id, status, updated_at)
		VALUES ($1::uuid, $2::uuid, $3, $4)
		ON CONFLICT (user_id)
		DO UPDATE SET company_id = EXCLUDED.company_id,
		              status = EXCLUDED.status,
		              updated_at = EXCLUDED.updated_at
	`, p.UserID, p.CompanyID, p.Status, p.UpdatedAt)
	return err
}

func (r *PgPresenceRepository) Get(ctx context.Context, userID string) (*chat.Presence, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgPresenceRepository: nil pool")
	}
	var p chat.Presence
	err := r.pool.QueryRow(ctx, `
		SELECT user_id::text, company_id::text, status, updated_at
		FROM chat.presence
		WHERE user_id = $1::uuid
	`, userID).Scan(&p.UserID, &p.CompanyID, &p.Status, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgPresenceRepository) ListByCompany(ctx context.Context, companyID string) ([]chat.Presence, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgPresenceRepository: nil pool")
	}
	// Every company member appears in the listing; members who have never
	// connected have no presence row and default to offline.
	rows, err := r.pool.Query(ctx, `
		SELECT cm.user_id::text, cm.company_id::text,
		       COALESCE(p.status, 'offline'), COALESCE(p.updated_at, cm.joined_at)
		FROM core.company_member cm
		LEFT JOIN chat.presence p ON p.user_id = cm.user_id
		WHERE cm.company_id = $1::uuid
	`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []chat.Presence
	for rows.Next() {
		var p chat.Presence
		if err := rows.Scan(&p.UserID, &p.CompanyID, &p.Status, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
