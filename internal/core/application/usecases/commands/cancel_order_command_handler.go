package commands

import (
	"context"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/services"
	"workorders/internal/pkg/errs"
)

// CancelOrderCommandHandler cancels orders on behalf of actors allowed by CanCancel.
type CancelOrderCommandHandler struct {
	writer  OrderWriter
	policy  services.AuthorizationPolicy
	machine services.OrderStateMachine
}

func NewCancelOrderCommandHandler(writer OrderWriter, machine services.OrderStateMachine) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		writer:  writer,
		policy:  services.NewAuthorizationPolicy(),
		machine: machine,
	}
}

// Handle reports Changed false for orders that are already Completed or Canceled.
func (h CancelOrderCommandHandler) Handle(ctx context.Context, command CancelOrderCommand) (Result, error) {
	if err := command.Validate(); err != nil {
		return Result{}, err
	}

	actor := command.Actor()
	mutate := func(_ context.Context, _ OrderUoW, current *order.Order) (*order.Order, error) {
		if !current.Status().IsCancelable() {
			return nil, nil
		}
		if !h.policy.CanCancel(actor, current) {
			return nil, errs.NewPermissionDeniedError("cancel order")
		}

		next := current.Clone()
		if !h.machine.Cancel(next, actor, command.Reason()) {
			return nil, nil
		}
		return next, nil
	}

	return h.writer.write(ctx, command.OrderID(), actor, mutate, statusChanged)
}
