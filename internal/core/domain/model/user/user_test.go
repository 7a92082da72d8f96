package user_test

import (
	"strings"
	"testing"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser(t *testing.T) {
	t.Run("should build a client without gender", func(t *testing.T) {
		id := kernel.NewUUID()

		u, err := user.NewUser(id, "alice", user.Client, kernel.NoGender)

		require.NoError(t, err)
		require.NoError(t, u.Validate())
		assert.True(t, u.ID().IsEqual(id))
		assert.Equal(t, "alice", u.Username())
		assert.True(t, u.IsClient())
		assert.False(t, u.Gender().IsSet())
	})

	t.Run("should require a gender for workers", func(t *testing.T) {
		_, err := user.NewUser(kernel.NewUUID(), "bob", user.Worker, kernel.NoGender)

		require.ErrorIs(t, err, errs.ErrValueIsRequired)
	})

	t.Run("should collect every invalid field", func(t *testing.T) {
		_, err := user.NewUser(kernel.UUID{}, " ", user.UnknownRole, kernel.Gender("x"))

		require.ErrorIs(t, err, kernel.ErrUUIDIsNotConstructed)
		require.ErrorIs(t, err, errs.ErrValueIsRequired)
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})

	t.Run("should bound the username length", func(t *testing.T) {
		_, err := user.NewUser(kernel.NewUUID(), strings.Repeat("a", 151), user.Admin, kernel.NoGender)

		require.ErrorIs(t, err, errs.ErrValueIsOutOfRange)
	})
}

func TestUser_ZeroValue(t *testing.T) {
	var u user.User

	require.ErrorIs(t, u.Validate(), user.ErrUserIsNotConstructed)
	assert.False(t, u.Is(kernel.UUID{}))
}

func TestParseRole(t *testing.T) {
	t.Run("should parse wire names", func(t *testing.T) {
		for name, want := range map[string]user.Role{"client": user.Client, "worker": user.Worker, "admin": user.Admin} {
			got, err := user.ParseRole(name)
			require.NoError(t, err)
			assert.Equal(t, want, got)
			assert.Equal(t, name, got.String())
		}
	})

	t.Run("should reject unknown names", func(t *testing.T) {
		_, err := user.ParseRole("unknown")
		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
	})
}
