package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"workorders/internal/adapters/out/auth"
	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) Add(ctx context.Context, u user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) Get(ctx context.Context, id kernel.UUID) (user.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(user.User), args.Error(1)
}

func (m *MockUserRepository) GetWorkersByGender(ctx context.Context, g kernel.Gender) ([]user.User, error) {
	args := m.Called(ctx, g)
	return args.Get(0).([]user.User), args.Error(1)
}

func sign(t *testing.T, method jwt.SigningMethod, key any, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestJWTVerifier_VerifyToken(t *testing.T) {
	u, err := user.NewUser(kernel.NewUUID(), "carol", user.Client, kernel.Female)
	require.NoError(t, err)

	valid := jwt.MapClaims{
		"user_id": u.ID().String(),
		"exp":     time.Now().Add(time.Hour).Unix(),
	}

	t.Run("should resolve the user of a valid token", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("Get", mock.Anything, u.ID()).Return(u, nil).Once()
		v, err := auth.NewJWTVerifier(secret, users)
		require.NoError(t, err)

		got, err := v.VerifyToken(t.Context(), sign(t, jwt.SigningMethodHS256, []byte(secret), valid))

		require.NoError(t, err)
		assert.True(t, got.Is(u.ID()))
		users.AssertExpectations(t)
	})

	t.Run("should reject bad tokens as unauthenticated", func(t *testing.T) {
		tests := []struct {
			name  string
			token string
		}{
			{"empty", ""},
			{"garbage", "not-a-token"},
			{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), valid)},
			{"expired", sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{
				"user_id": u.ID().String(),
				"exp":     time.Now().Add(-time.Minute).Unix(),
			})},
			{"unsigned", sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, valid)},
			{"missing user id", sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "x"})},
			{"malformed user id", sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"user_id": "42"})},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				users := new(MockUserRepository)
				v, err := auth.NewJWTVerifier(secret, users)
				require.NoError(t, err)

				_, err = v.VerifyToken(t.Context(), tt.token)

				require.ErrorIs(t, err, errs.ErrUnauthenticated)
				assert.Equal(t, errs.CodeUnauthenticated, errs.Code(err))
				users.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
			})
		}
	})

	t.Run("should reject tokens of unknown users", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("Get", mock.Anything, u.ID()).Return(user.User{}, errs.NewObjectNotFoundError("user", u.ID())).Once()
		v, err := auth.NewJWTVerifier(secret, users)
		require.NoError(t, err)

		_, err = v.VerifyToken(t.Context(), sign(t, jwt.SigningMethodHS256, []byte(secret), valid))

		require.ErrorIs(t, err, errs.ErrUnauthenticated)
	})

	t.Run("should pass storage failures through", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("Get", mock.Anything, u.ID()).Return(user.User{}, errors.New("connection reset")).Once()
		v, err := auth.NewJWTVerifier(secret, users)
		require.NoError(t, err)

		_, err = v.VerifyToken(t.Context(), sign(t, jwt.SigningMethodHS256, []byte(secret), valid))

		require.Error(t, err)
		assert.NotErrorIs(t, err, errs.ErrUnauthenticated)
	})

	t.Run("should require a secret", func(t *testing.T) {
		_, err := auth.NewJWTVerifier(" ", new(MockUserRepository))

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})
}

func TestBearerToken(t *testing.T) {
	token, ok := auth.BearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	_, ok = auth.BearerToken("Basic abc")
	assert.False(t, ok)

	_, ok = auth.BearerToken("")
	assert.False(t, ok)
}
