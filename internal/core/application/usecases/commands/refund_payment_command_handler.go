package commands

import (
	"context"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/services"
	"workorders/internal/core/ports"
	"workorders/internal/pkg/errs"
)

// RefundPaymentCommandHandler cancels Paid orders whose payment is returned.
type RefundPaymentCommandHandler struct {
	writer  OrderWriter
	policy  services.AuthorizationPolicy
	machine services.OrderStateMachine
}

func NewRefundPaymentCommandHandler(writer OrderWriter, machine services.OrderStateMachine) RefundPaymentCommandHandler {
	return RefundPaymentCommandHandler{
		writer:  writer,
		policy:  services.NewAuthorizationPolicy(),
		machine: machine,
	}
}

// Handle requires the actor to be an admin or the owning client and the order to be Paid.
// The refund is announced as a failed payment.
func (h RefundPaymentCommandHandler) Handle(ctx context.Context, command RefundPaymentCommand) (Result, error) {
	if err := command.Validate(); err != nil {
		return Result{}, err
	}

	actor := command.Actor()
	mutate := func(_ context.Context, _ OrderUoW, current *order.Order) (*order.Order, error) {
		if !h.policy.CanPay(actor, current) {
			return nil, errs.NewPermissionDeniedError("refund payment")
		}

		next := current.Clone()
		if !h.machine.Refund(next, command.Reason()) {
			return nil, errs.NewPreconditionFailedError("refund payment")
		}
		return next, nil
	}

	publish := func(ctx context.Context, n ports.OrderEventNotifier, _, after *order.Order) error {
		return n.PaymentProcessed(ctx, after, false)
	}

	return h.writer.write(ctx, command.OrderID(), actor, mutate, publish)
}
