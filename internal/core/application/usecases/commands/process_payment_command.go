package commands

import (
	"errors"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/guard"
)

var ErrProcessPaymentCommandIsNotConstructed = errors.New(
	"ProcessPaymentCommand must be created via NewProcessPaymentCommand constructor",
)

// ProcessPaymentCommand reports the outcome of a payment for a Pending order.
// There is no gateway; success is the signal the payment provider returned.
type ProcessPaymentCommand struct {
	target  orderTarget
	success bool

	guard guard.ConstructorGuard
}

func NewProcessPaymentCommand(actor user.User, orderID kernel.UUID, success bool) (ProcessPaymentCommand, error) {
	target, err := newOrderTarget(actor, orderID)
	if err != nil {
		return ProcessPaymentCommand{}, err
	}
	return ProcessPaymentCommand{target: target, success: success, guard: guard.NewConstructorGuard()}, nil
}

func (c ProcessPaymentCommand) Validate() error {
	return c.guard.Validate(ErrProcessPaymentCommandIsNotConstructed)
}

func (c ProcessPaymentCommand) Actor() user.User     { return c.target.Actor() }
func (c ProcessPaymentCommand) OrderID() kernel.UUID { return c.target.OrderID() }
func (c ProcessPaymentCommand) Success() bool        { return c.success }
