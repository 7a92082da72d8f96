package commands

import (
	"context"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/services"
	"workorders/internal/pkg/errs"
)

// StartWorkCommandHandler moves Paid orders to InProgress. The actor needs CanManage.
type StartWorkCommandHandler struct {
	writer  OrderWriter
	policy  services.AuthorizationPolicy
	machine services.OrderStateMachine
}

func NewStartWorkCommandHandler(writer OrderWriter, machine services.OrderStateMachine) StartWorkCommandHandler {
	return StartWorkCommandHandler{
		writer:  writer,
		policy:  services.NewAuthorizationPolicy(),
		machine: machine,
	}
}

// Handle reports Changed false when the actor is not the assigned worker or the order is in another status.
func (h StartWorkCommandHandler) Handle(ctx context.Context, command StartWorkCommand) (Result, error) {
	if err := command.Validate(); err != nil {
		return Result{}, err
	}

	actor := command.Actor()
	mutate := func(_ context.Context, _ OrderUoW, current *order.Order) (*order.Order, error) {
		if !h.policy.CanManage(actor, current) {
			return nil, errs.NewPermissionDeniedError("start work")
		}

		next := current.Clone()
		if !h.machine.StartWork(next, actor) {
			return nil, nil
		}
		return next, nil
	}

	return h.writer.write(ctx, command.OrderID(), actor, mutate, statusChanged)
}
