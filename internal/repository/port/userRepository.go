package repository

import "context"

// User is the profile projection the messaging core needs; the full business
// profile lives with the out-of-scope CRUD surfaces.
type User struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	AvatarURL *string
}

// UserRepository resolves identities within a company boundary. Lookups return
// (nil, nil) when no matching member exists so callers can map absence to
// their own not-found semantics.
type UserRepository interface {
	FindByIDInCompany(ctx context.Context, id, companyID string) (*User, error)
	FindByEmailInCompany(ctx context.Context, email, companyID string) (*User, error)
}
