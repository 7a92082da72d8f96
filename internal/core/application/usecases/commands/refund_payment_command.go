package commands

import (
	"errors"
	"strings"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/guard"
)

var ErrRefundPaymentCommandIsNotConstructed = errors.New(
	"RefundPaymentCommand must be created via NewRefundPaymentCommand constructor",
)

// RefundPaymentCommand returns the payment of a Paid order and cancels it.
type RefundPaymentCommand struct {
	target orderTarget
	reason string

	guard guard.ConstructorGuard
}

// NewRefundPaymentCommand requires a non-blank reason.
func NewRefundPaymentCommand(actor user.User, orderID kernel.UUID, reason string) (RefundPaymentCommand, error) {
	target, err := newOrderTarget(actor, orderID)
	if err != nil {
		return RefundPaymentCommand{}, err
	}
	if strings.TrimSpace(reason) == "" {
		return RefundPaymentCommand{}, errs.NewValueIsRequiredError("reason")
	}

	return RefundPaymentCommand{
		target: target,
		reason: strings.TrimSpace(reason),
		guard:  guard.NewConstructorGuard(),
	}, nil
}

func (c RefundPaymentCommand) Validate() error {
	return c.guard.Validate(ErrRefundPaymentCommandIsNotConstructed)
}

func (c RefundPaymentCommand) Actor() user.User     { return c.target.Actor() }
func (c RefundPaymentCommand) OrderID() kernel.UUID { return c.target.OrderID() }
func (c RefundPaymentCommand) Reason() string       { return c.reason }
