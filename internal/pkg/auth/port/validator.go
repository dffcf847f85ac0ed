package port

import (
	"context"
	"errors"
)

// Identity is the resolved caller of a request or realtime connection.
// A user acts within exactly one company context per session.
type Identity struct {
	UserID    string
	CompanyID string
	Email     string
}

// ErrUnauthenticated covers missing, unknown and expired tokens, plus sessions
// that cannot be resolved to any company.
var ErrUnauthenticated = errors.New("auth: unauthenticated")

// Validator verifies an opaque bearer token against the session store.
// It is consulted on every REST request and on the initial handshake of every
// realtime connection, and nowhere else.
type Validator interface {
	Authenticate(ctx context.Context, token string) (*Identity, error)
}
