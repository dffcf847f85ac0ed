package adapter

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	repository "teamchat/internal/repository/port"
)

type PgUserRepository struct {
	pool *pgxpool.Pool
}

func NewPgUserRepository(pool *pgxpool.Pool) *PgUserRepository {
	return &PgUserRepository{pool: pool}
}

var _ repository.UserRepository = (*PgUserRepository)(nil)

func (r *PgUserRepository) FindByIDInCompany(ctx context.Context, id, companyID string) (*repository.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	return r.findOne(ctx, `
		SELECT u.id::text, u.email, u.first_name, u.last_name, u.avatar_url
		FROM core.app_user u
		JOIN core.company_member cm ON cm.user_id = u.id
		WHERE u.id = $1::uuid AND cm.company_id = $2::uuid
	`, id, companyID)
}

func (r *PgUserRepository) FindByEmailInCompany(ctx context.Context, email, companyID string) (*repository.User, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgUserRepository: nil pool")
	}
	return r.findOne(ctx, `
		SELECT u.id::text, u.email, u.first_name, u.last_name, u.avatar_url
		FROM core.app_user u
		JOIN core.company_member cm ON cm.user_id = u.id
		WHERE lower(u.email) = lower($1) AND cm.company_id = $2::uuid
	`, strings.TrimSpace(email), companyID)
}

func (r *PgUserRepository) findOne(ctx context.Context, sql string, args ...any) (*repository.User, error) {
	var u repository.User
	err := r.pool.QueryRow(ctx, sql, args...).Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.AvatarURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
