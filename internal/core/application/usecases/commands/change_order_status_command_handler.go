package commands

import (
	"context"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/core/domain/services"
	"workorders/internal/pkg/errs"
)

// ChangeOrderStatusCommandHandler applies status change requests.
//
// Authorization depends on what is requested: canceling needs CanCancel, any other status
// needs CanUpdate and a worker-only request needs CanManage.
type ChangeOrderStatusCommandHandler struct {
	writer  OrderWriter
	policy  services.AuthorizationPolicy
	machine services.OrderStateMachine
}

func NewChangeOrderStatusCommandHandler(
	writer OrderWriter,
	machine services.OrderStateMachine,
) ChangeOrderStatusCommandHandler {
	return ChangeOrderStatusCommandHandler{
		writer:  writer,
		policy:  services.NewAuthorizationPolicy(),
		machine: machine,
	}
}

// Handle returns the stored order. Result.Changed is false when the request was a no-op.
//
// Errors: errs.VersionConflictError when ExpectedVersion is stale, errs.PermissionDeniedError,
// errs.InvalidTransitionError, errs.PreconditionFailedError and errs.ObjectNotFoundError.
func (h ChangeOrderStatusCommandHandler) Handle(ctx context.Context, command ChangeOrderStatusCommand) (Result, error) {
	if err := command.Validate(); err != nil {
		return Result{}, err
	}

	actor := command.Actor()
	change := command.Change()

	mutate := func(ctx context.Context, uow OrderUoW, current *order.Order) (*order.Order, error) {
		if change.ExpectedVersion != nil && *change.ExpectedVersion != current.Version() {
			return nil, errs.NewVersionConflictError("order", current.ID().String(), *change.ExpectedVersion)
		}
		if err := h.authorize(actor, current, change); err != nil {
			return nil, err
		}

		if change.Status == order.Canceled && current.Status() != order.Canceled {
			return h.cancel(current, actor, change.Reason)
		}

		extra := services.Extra{Changes: change.Changes}
		if change.WorkerID != nil {
			worker, err := uow.UserRepository().Get(ctx, *change.WorkerID)
			if err != nil {
				return nil, err
			}
			extra.Worker = &worker
		}

		return h.machine.RequestStatusChange(current, change.Status, actor, extra)
	}

	return h.writer.write(ctx, command.OrderID(), actor, mutate, statusChanged)
}

func (h ChangeOrderStatusCommandHandler) authorize(actor user.User, o *order.Order, change StatusChange) error {
	switch {
	case change.Status == order.Canceled:
		if !h.policy.CanCancel(actor, o) {
			return errs.NewPermissionDeniedError("cancel order")
		}
	case change.Status != order.Unknown:
		if !h.policy.CanUpdate(actor, o) {
			return errs.NewPermissionDeniedError("update order")
		}
	default:
		if !h.policy.CanManage(actor, o) {
			return errs.NewPermissionDeniedError("manage order")
		}
	}
	return nil
}

// cancel works on a copy so the reason is recorded together with the status.
func (h ChangeOrderStatusCommandHandler) cancel(current *order.Order, actor user.User, reason string) (*order.Order, error) {
	if !current.Status().IsCancelable() {
		return nil, errs.NewInvalidTransitionError("order", current.Status(), order.Canceled)
	}
	next := current.Clone()
	if !h.machine.Cancel(next, actor, reason) {
		return nil, errs.NewPreconditionFailedError("cancel order")
	}
	return next, nil
}
