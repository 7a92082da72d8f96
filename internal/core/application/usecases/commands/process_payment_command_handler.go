package commands

import (
	"context"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/services"
	"workorders/internal/core/ports"
	"workorders/internal/pkg/errs"
)

// ProcessPaymentCommandHandler applies payment outcomes. A successful payment moves the order
// to Paid, a failed one cancels it.
type ProcessPaymentCommandHandler struct {
	writer  OrderWriter
	policy  services.AuthorizationPolicy
	machine services.OrderStateMachine
}

func NewProcessPaymentCommandHandler(
	writer OrderWriter,
	machine services.OrderStateMachine,
) ProcessPaymentCommandHandler {
	return ProcessPaymentCommandHandler{
		writer:  writer,
		policy:  services.NewAuthorizationPolicy(),
		machine: machine,
	}
}

// Handle requires the actor to be an admin or the owning client and the order to be Pending.
func (h ProcessPaymentCommandHandler) Handle(ctx context.Context, command ProcessPaymentCommand) (Result, error) {
	if err := command.Validate(); err != nil {
		return Result{}, err
	}

	actor := command.Actor()
	success := command.Success()
	mutate := func(_ context.Context, _ OrderUoW, current *order.Order) (*order.Order, error) {
		if !h.policy.CanPay(actor, current) {
			return nil, errs.NewPermissionDeniedError("process payment")
		}
		if current.Status() != order.Pending {
			return nil, errs.NewPreconditionFailedError("process payment")
		}

		next := current.Clone()
		if !h.machine.ProcessPayment(next, success) {
			return nil, errs.NewPreconditionFailedError("process payment")
		}
		return next, nil
	}

	publish := func(ctx context.Context, n ports.OrderEventNotifier, _, after *order.Order) error {
		return n.PaymentProcessed(ctx, after, success)
	}

	return h.writer.write(ctx, command.OrderID(), actor, mutate, publish)
}
