package user

import (
	"errors"
	"strings"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/guard"
)

var (
	ErrUserIsNotConstructed = errors.New("User must be created via NewUser constructor")
	ErrWorkerGenderRequired = errs.NewValueIsRequiredErrorWithCause("gender", errors.New("workers must specify a gender"))
)

// User is the verified identity an actor presents: who they are, which role they hold and the
// gender used for client/worker matching.
type User struct {
	id       kernel.UUID
	username string
	role     Role
	gender   kernel.Gender

	guard guard.ConstructorGuard
}

// NewUser validates and builds an identity. Workers must carry a gender.
func NewUser(id kernel.UUID, username string, role Role, gender kernel.Gender) (User, error) {
	u := User{guard: guard.NewConstructorGuard()}

	if err := errors.Join(
		u.setID(id),
		u.setUsername(username),
		u.setRole(role),
		gender.Validate(),
	); err != nil {
		return User{}, err
	}
	if role == Worker && !gender.IsSet() {
		return User{}, ErrWorkerGenderRequired
	}

	u.gender = gender
	return u, nil
}

func (u User) Validate() error {
	return u.guard.Validate(ErrUserIsNotConstructed)
}

func (u User) ID() kernel.UUID {
	return u.id
}

func (u User) Username() string {
	return u.username
}

func (u User) Role() Role {
	return u.role
}

func (u User) Gender() kernel.Gender {
	return u.gender
}

func (u User) IsClient() bool { return u.role == Client }
func (u User) IsWorker() bool { return u.role == Worker }
func (u User) IsAdmin() bool  { return u.role == Admin }

// Is reports whether u and the given id denote the same person.
func (u User) Is(id kernel.UUID) bool {
	return !id.IsZero() && u.id.IsEqual(id)
}

func (u *User) setID(id kernel.UUID) error {
	if err := id.Validate(); err != nil {
		return err
	}
	u.id = id
	return nil
}

func (u *User) setUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errs.NewValueIsRequiredError("username")
	}
	if len(username) > 150 {
		return errs.NewValueIsOutOfRangeError("username length", len(username), 1, 150)
	}
	u.username = username
	return nil
}

func (u *User) setRole(role Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	u.role = role
	return nil
}
