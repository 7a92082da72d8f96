// Package auth verifies the bearer tokens presented by HTTP requests and socket handshakes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/core/ports"
	"workorders/internal/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the token payload. user_id identifies an existing user.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// JWTVerifier accepts HMAC-signed tokens and resolves their subject through the user repository.
type JWTVerifier struct {
	secret []byte
	users  ports.UserRepository
	parser *jwt.Parser
}

func NewJWTVerifier(secret string, users ports.UserRepository) (*JWTVerifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errs.NewValueIsRequiredError("jwt secret")
	}
	if users == nil {
		return nil, errors.New("user repository is required")
	}

	return &JWTVerifier{
		secret: []byte(secret),
		users:  users,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{
				jwt.SigningMethodHS256.Alg(),
				jwt.SigningMethodHS384.Alg(),
				jwt.SigningMethodHS512.Alg(),
			}),
		),
	}, nil
}

// VerifyToken checks the signature and expiry and loads the user named by the user_id claim.
// Every rejection wraps errs.ErrUnauthenticated; repository failures other than a missing
// user are returned unchanged.
func (v *JWTVerifier) VerifyToken(ctx context.Context, token string) (user.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return user.User{}, fmt.Errorf("%w: missing token", errs.ErrUnauthenticated)
	}

	var claims Claims
	if _, err := v.parser.ParseWithClaims(token, &claims, v.key); err != nil {
		return user.User{}, fmt.Errorf("%w: %w", errs.ErrUnauthenticated, err)
	}

	id, err := kernel.UUIDFromString(claims.UserID)
	if err != nil {
		return user.User{}, fmt.Errorf("%w: user_id claim: %w", errs.ErrUnauthenticated, err)
	}

	u, err := v.users.Get(ctx, id)
	if errors.Is(err, errs.ErrObjectNotFound) {
		return user.User{}, fmt.Errorf("%w: %w", errs.ErrUnauthenticated, err)
	}
	if err != nil {
		return user.User{}, err
	}
	return u, nil
}

func (v *JWTVerifier) key(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
	}
	return v.secret, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) (string, bool) {
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}
