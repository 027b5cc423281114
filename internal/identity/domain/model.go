package domain

import (
	"context"
	"errors"
)

var (
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrIdentityUnavailable = errors.New("identity_provider_unavailable")
)

// Identity is the authenticated principal resolved from a bearer token.
type Identity struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Verifier resolves a bearer token to an identity. An expired, malformed, or
// revoked token returns ErrUnauthenticated; transport failures return
// ErrIdentityUnavailable so callers can distinguish 401 from 503.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
