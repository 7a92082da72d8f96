package commands

import (
	"errors"
	"strings"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/guard"
)

var ErrCancelOrderCommandIsNotConstructed = errors.New(
	"CancelOrderCommand must be created via NewCancelOrderCommand constructor",
)

// CancelOrderCommand cancels an order that is not yet Completed or Canceled.
type CancelOrderCommand struct {
	target orderTarget
	reason string

	guard guard.ConstructorGuard
}

// NewCancelOrderCommand requires a non-blank reason.
func NewCancelOrderCommand(actor user.User, orderID kernel.UUID, reason string) (CancelOrderCommand, error) {
	target, err := newOrderTarget(actor, orderID)
	if err != nil {
		return CancelOrderCommand{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return CancelOrderCommand{}, errs.NewValueIsRequiredError("reason")
	}

	return CancelOrderCommand{
		target: target,
		reason: strings.TrimSpace(reason),
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (c CancelOrderCommand) Validate() error {
	return c.guard.Validate(ErrCancelOrderCommandIsNotConstructed)
}

func (c CancelOrderCommand) Actor() user.User     { return c.target.Actor() }
func (c CancelOrderCommand) OrderID() kernel.UUID { return c.target.OrderID() }
func (c CancelOrderCommand) Reason() string       { return c.reason }
