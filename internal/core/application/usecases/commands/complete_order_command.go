package commands

import (
	"errors"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/guard"
)

var ErrCompleteOrderCommandIsNotConstructed = errors.New(
	"CompleteOrderCommand must be created via NewCompleteOrderCommand constructor",
)

// CompleteOrderCommand lets the assigned worker finish an order in progress.
type CompleteOrderCommand struct {
	target orderTarget

	guard guard.ConstructorGuard
}

func NewCompleteOrderCommand(actor user.User, orderID kernel.UUID) (CompleteOrderCommand, error) {
	target, err := newOrderTarget(actor, orderID)
	if err != nil {
		return CompleteOrderCommand{}, err
	}
	return CompleteOrderCommand{target: target, guard: guard.NewConstructorGuard()}, nil
}

func (c CompleteOrderCommand) Validate() error {
	return c.guard.Validate(ErrCompleteOrderCommandIsNotConstructed)
}

func (c CompleteOrderCommand) Actor() user.User     { return c.target.Actor() }
func (c CompleteOrderCommand) OrderID() kernel.UUID { return c.target.OrderID() }
