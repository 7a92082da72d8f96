package commands

import (
	"context"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/services"
	"workorders/internal/pkg/errs"
)

// AssignWorkerCommandHandler attaches workers to Paid orders. The actor needs CanManage.
type AssignWorkerCommandHandler struct {
	writer  OrderWriter
	policy  services.AuthorizationPolicy
	machine services.OrderStateMachine
}

func NewAssignWorkerCommandHandler(writer OrderWriter, machine services.OrderStateMachine) AssignWorkerCommandHandler {
	return AssignWorkerCommandHandler{
		writer:  writer,
		policy:  services.NewAuthorizationPolicy(),
		machine: machine,
	}
}

// Handle reports Changed false when the order is not Paid, already has a worker or the
// user is not a worker.
func (h AssignWorkerCommandHandler) Handle(ctx context.Context, command AssignWorkerCommand) (Result, error) {
	if err := command.Validate(); err != nil {
		return Result{}, err
	}

	actor := command.Actor()
	mutate := func(ctx context.Context, uow OrderUoW, current *order.Order) (*order.Order, error) {
		if !h.policy.CanManage(actor, current) {
			return nil, errs.NewPermissionDeniedError("assign worker")
		}

		worker, err := uow.UserRepository().Get(ctx, command.WorkerID())
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if !h.machine.AssignWorker(next, worker) {
			return nil, nil
		}
		return next, nil
	}

	return h.writer.write(ctx, command.OrderID(), actor, mutate, statusChanged)
}
