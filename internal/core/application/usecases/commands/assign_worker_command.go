package commands

import (
	"errors"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/guard"
)

var ErrAssignWorkerCommandIsNotConstructed = errors.New(
	"AssignWorkerCommand must be created via NewAssignWorkerCommand constructor",
)

// AssignWorkerCommand attaches a worker to a Paid order.
type AssignWorkerCommand struct {
	target   orderTarget
	workerID kernel.UUID

	guard guard.ConstructorGuard
}

func NewAssignWorkerCommand(actor user.User, orderID, workerID kernel.UUID) (AssignWorkerCommand, error) {
	target, err := newOrderTarget(actor, orderID)
	if err != nil {
		return AssignWorkerCommand{}, err
	}
	if err = workerID.Validate(); err != nil {
		return AssignWorkerCommand{}, err
	}

	return AssignWorkerCommand{
		target:   target,
		workerID: workerID,
		guard:    guard.NewConstructorGuard(),
	}, nil
}

func (c AssignWorkerCommand) Validate() error {
	return c.guard.Validate(ErrAssignWorkerCommandIsNotConstructed)
}

func (c AssignWorkerCommand) Actor() user.User      { return c.target.Actor() }
func (c AssignWorkerCommand) OrderID() kernel.UUID  { return c.target.OrderID() }
func (c AssignWorkerCommand) WorkerID() kernel.UUID { return c.workerID }
