package ports

import (
	"context"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
)

// UserRepository loads the identities orders and notifications refer to.
type UserRepository interface {
	Add(ctx context.Context, u user.User) error

	// Get returns errs.ObjectNotFoundError for unknown IDs.
	Get(ctx context.Context, id kernel.UUID) (user.User, error)

	// GetWorkersByGender returns every worker whose gender equals g. An unset gender matches nobody.
	GetWorkersByGender(ctx context.Context, g kernel.Gender) ([]user.User, error)
}
