package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"teamchat/internal/pkg/auth/port"
)

// PgSessionValidator resolves opaque bearer tokens against the core.session
// table. Sessions store the company context chosen at login; rows predating
// company selection fall back to the user's first membership.
type PgSessionValidator struct {
	pool *pgxpool.Pool
}

func NewPgSessionValidator(pool *pgxpool.Pool) *PgSessionValidator {
	return &PgSessionValidator{pool: pool}
}

var _ port.Validator = (*PgSessionValidator)(nil)

func (v *PgSessionValidator) Authenticate(ctx context.Context, token string) (*port.Identity, error) {
	if v == nil || v.pool == nil {
		return nil, errors.New("PgSessionValidator: nil pool")
	}
	if token == "" {
		return nil, port.ErrUnauthenticated
	}

	var (
		userID    string
		companyID *string
		email     string
		expiresAt time.Time
	)
	err := v.pool.QueryRow(ctx, `
		SELECT s.user_id::text, s.company_id::text, u.email, s.expires_at
		FROM core.session s
		JOIN core.app_user u ON u.id = s.user_id
		WHERE s.token = $1
	`, token).Scan(&userID, &companyID, &email, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, port.ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("auth: session lookup: %w", err)
	}
	if !expiresAt.After(time.Now()) {
		return nil, port.ErrUnauthenticated
	}

	if companyID == nil {
		var resolved string
		err := v.pool.QueryRow(ctx, `
			SELECT company_id::text
			FROM core.company_member
			WHERE user_id = $1::uuid
			ORDER BY joined_at
			LIMIT 1
		`, userID).Scan(&resolved)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, port.ErrUnauthenticated
		}
		if err != nil {
			return nil, fmt.Errorf("auth: membership lookup: %w", err)
		}
		companyID = &resolved
	}

	return &port.Identity{UserID: userID, CompanyID: *companyID, Email: email}, nil
}
