package commands

import (
	"errors"
	"strings"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/guard"
)

var ErrChangeOrderStatusCommandIsNotConstructed = errors.New(
	"ChangeOrderStatusCommand must be created via NewChangeOrderStatusCommand constructor",
)

// StatusChange is the body of a status change request. Status may be order.Unknown when the
// request only assigns a worker or edits fields.
type StatusChange struct {
	Status          order.Status
	WorkerID        *kernel.UUID
	Reason          string
	Changes         order.Changes
	ExpectedVersion *int64
}

// ChangeOrderStatusCommand requests a move along the order lifecycle, optionally assigning
// a worker and editing fields in the same step.
type ChangeOrderStatusCommand struct { //nolint:recvcheck //using for validation
	target orderTarget
	change StatusChange

	guard guard.ConstructorGuard
}

// NewChangeOrderStatusCommand requires a status, a worker or field changes.
// Canceling requires a reason and cannot be combined with a worker or changes.
func NewChangeOrderStatusCommand(
	actor user.User,
	orderID kernel.UUID,
	change StatusChange,
) (ChangeOrderStatusCommand, error) {
	target, err := newOrderTarget(actor, orderID)
	if err != nil {
		return ChangeOrderStatusCommand{}, err
	}

	if change.Status == order.Unknown && change.WorkerID == nil && change.Changes.IsEmpty() {
		return ChangeOrderStatusCommand{}, errs.NewValueIsRequiredError("status or worker_id")
	}
	if change.Status != order.Unknown {
		if err = change.Status.Validate(); err != nil {
			return ChangeOrderStatusCommand{}, err
		}
	}
	if change.WorkerID != nil {
		if err = change.WorkerID.Validate(); err != nil {
			return ChangeOrderStatusCommand{}, err
		}
	}
	if change.Status == order.Canceled {
		if strings.TrimSpace(change.Reason) == "" {
			return ChangeOrderStatusCommand{}, errs.NewValueIsRequiredError("reason")
		}
		if change.WorkerID != nil || !change.Changes.IsEmpty() {
			return ChangeOrderStatusCommand{}, errs.NewValueIsInvalidError("cancellation with worker or changes")
		}
	}
	if change.ExpectedVersion != nil && *change.ExpectedVersion < 1 {
		return ChangeOrderStatusCommand{}, errs.NewValueIsInvalidError("expected version")
	}

	return ChangeOrderStatusCommand{
		target: target,
		change: change,
		guard:  guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c ChangeOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrChangeOrderStatusCommandIsNotConstructed)
}

func (c ChangeOrderStatusCommand) Actor() user.User     { return c.target.Actor() }
func (c ChangeOrderStatusCommand) OrderID() kernel.UUID { return c.target.OrderID() }
func (c ChangeOrderStatusCommand) Change() StatusChange { return c.change }
