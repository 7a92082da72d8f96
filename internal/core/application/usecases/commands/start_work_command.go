package commands

import (
	"errors"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/guard"
)

var ErrStartWorkCommandIsNotConstructed = errors.New(
	"StartWorkCommand must be created via NewStartWorkCommand constructor",
)

// StartWorkCommand lets the assigned worker begin work on a Paid order.
type StartWorkCommand struct {
	target orderTarget

	guard guard.ConstructorGuard
}

func NewStartWorkCommand(actor user.User, orderID kernel.UUID) (StartWorkCommand, error) {
	target, err := newOrderTarget(actor, orderID)
	if err != nil {
		return StartWorkCommand{}, err
	}
	return StartWorkCommand{target: target, guard: guard.NewConstructorGuard()}, nil
}

func (c StartWorkCommand) Validate() error {
	return c.guard.Validate(ErrStartWorkCommandIsNotConstructed)
}

func (c StartWorkCommand) Actor() user.User     { return c.target.Actor() }
func (c StartWorkCommand) OrderID() kernel.UUID { return c.target.OrderID() }
