package ports

import (
	"context"

	"workorders/internal/core/domain/model/user"
)

// TokenVerifier turns a bearer token into a verified identity.
// Any failure wraps errs.ErrUnauthenticated.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (user.User, error)
}
