package commands

import (
	"context"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/services"
	"workorders/internal/pkg/errs"
)

// CompleteOrderCommandHandler finishes orders in progress. The actor needs CanManage.
type CompleteOrderCommandHandler struct {
	writer  OrderWriter
	policy  services.AuthorizationPolicy
	machine services.OrderStateMachine
}

func NewCompleteOrderCommandHandler(writer OrderWriter, machine services.OrderStateMachine) CompleteOrderCommandHandler {
	return CompleteOrderCommandHandler{
		writer:  writer,
		policy:  services.NewAuthorizationPolicy(),
		machine: machine,
	}
}

// Handle reports Changed false when the actor is not the assigned worker or the order is in another status.
func (h CompleteOrderCommandHandler) Handle(ctx context.Context, command CompleteOrderCommand) (Result, error) {
	if err := command.Validate(); err != nil {
		return Result{}, err
	}

	actor := command.Actor()
	mutate := func(_ context.Context, _ OrderUoW, current *order.Order) (*order.Order, error) {
		if !h.policy.CanManage(actor, current) {
			return nil, errs.NewPermissionDeniedError("complete order")
		}

		next := current.Clone()
		if !h.machine.Complete(next, actor) {
			return nil, nil
		}
		return next, nil
	}

	return h.writer.write(ctx, command.OrderID(), actor, mutate, statusChanged)
}
