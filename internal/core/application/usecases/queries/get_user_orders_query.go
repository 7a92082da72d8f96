package queries

import (
	"errors"
	"slices"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/guard"
)

const (
	// DefaultOrdersLimit is used when no limit is given. The socket history request uses it too.
	DefaultOrdersLimit = 50
	MaxOrdersLimit     = 100
)

var ErrGetUserOrdersQueryIsNotConstructed = errors.New(
	"GetUserOrdersQuery must be created via NewGetUserOrdersQuery constructor",
)

// GetUserOrdersQuery lists the orders visible to actor, newest first.
// Clients see their own orders, workers the orders of clients with their gender, admins everything.
type GetUserOrdersQuery struct {
	actor    user.User
	statuses []order.Status
	limit    int

	guard guard.ConstructorGuard
}

// NewGetUserOrdersQuery builds the query. An empty statuses list means any status,
// a zero limit means DefaultOrdersLimit.
func NewGetUserOrdersQuery(actor user.User, statuses []order.Status, limit int) (GetUserOrdersQuery, error) {
	if err := actor.Validate(); err != nil {
		return GetUserOrdersQuery{}, err
	}

	var errList []error
	for _, s := range statuses {
		errList = append(errList, s.Validate())
	}
	if err := errors.Join(errList...); err != nil {
		return GetUserOrdersQuery{}, err
	}

	if limit == 0 {
		limit = DefaultOrdersLimit
	}
	if limit < 1 || limit > MaxOrdersLimit {
		return GetUserOrdersQuery{}, errs.NewValueIsOutOfRangeError("limit", limit, 1, MaxOrdersLimit)
	}

	return GetUserOrdersQuery{
		actor:    actor,
		statuses: slices.Compact(slices.Sorted(slices.Values(statuses))),
		limit:    limit,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (q GetUserOrdersQuery) Validate() error {
	return q.guard.Validate(ErrGetUserOrdersQueryIsNotConstructed)
}

func (q GetUserOrdersQuery) Actor() user.User         { return q.actor }
func (q GetUserOrdersQuery) Statuses() []order.Status { return slices.Clone(q.statuses) }
func (q GetUserOrdersQuery) Limit() int               { return q.limit }
