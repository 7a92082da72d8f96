package services

import (
	"errors"
	"time"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"
)

// PaymentFailedReason is recorded on orders canceled by a failed payment.
const PaymentFailedReason = "payment failed"

// Extra carries what may accompany a status change request.
type Extra struct {
	Changes order.Changes
	Worker  *user.User
}

// OrderStateMachine applies lifecycle operations to orders.
//
// RequestStatusChange works on a copy and returns it only when every step succeeded,
// so a rejected request never leaves a half-applied order behind. The boolean operations
// mutate the given order in place and return false instead of an error when their
// preconditions do not hold.
//
// The state machine does not serialize access. Callers hold the per-order lock while
// they load, change and save an order.
type OrderStateMachine struct {
	now func() time.Time
}

// NewOrderStateMachine creates a state machine stamping times from clock.
// A nil clock means time.Now.
func NewOrderStateMachine(clock func() time.Time) OrderStateMachine {
	if clock == nil {
		clock = time.Now
	}
	return OrderStateMachine{now: clock}
}

// RequestStatusChange moves o to requested, applying extra.Changes and assigning extra.Worker.
//
// requested may be order.Unknown when the request only carries a worker or field changes.
// Requesting the current status with nothing else returns o itself.
//
// Errors:
//   - errs.InvalidTransitionError when the edge is not in the transition table
//   - errs.PreconditionFailedError when the worker cannot be assigned or work cannot start
//   - validation errors for invalid field changes
func (sm OrderStateMachine) RequestStatusChange(
	o *order.Order,
	requested order.Status,
	actor user.User,
	extra Extra,
) (*order.Order, error) {
	if err := errors.Join(o.Validate(), actor.Validate()); err != nil {
		return nil, err
	}

	if requested == order.Unknown {
		requested = o.Status()
	}
	if requested == o.Status() && extra.Worker == nil && extra.Changes.IsEmpty() {
		return o, nil
	}

	now := sm.now()
	next := o.Clone()
	worker := extra.Worker

	// Assign first when the order is already Paid so that Paid -> InProgress finds its worker.
	if worker != nil && next.Status() == order.Paid {
		if !next.AssignWorker(*worker, now) {
			return nil, errs.NewPreconditionFailedError("assign worker")
		}
		worker = nil
	}

	if _, err := next.Transition(requested, extra.Changes, now); err != nil {
		return nil, err
	}

	if worker != nil && !next.AssignWorker(*worker, now) {
		return nil, errs.NewPreconditionFailedError("assign worker")
	}

	return next, nil
}

// AssignWorker attaches worker to a Paid, unassigned order. Non-workers are refused.
func (sm OrderStateMachine) AssignWorker(o *order.Order, worker user.User) bool {
	if o.Validate() != nil {
		return false
	}
	return o.AssignWorker(worker, sm.now())
}

// StartWork lets the assigned worker move a Paid order to InProgress.
func (sm OrderStateMachine) StartWork(o *order.Order, actor user.User) bool {
	if o.Validate() != nil || actor.Validate() != nil {
		return false
	}
	return o.StartWork(actor.ID(), sm.now())
}

// Complete lets the assigned worker finish an InProgress order.
func (sm OrderStateMachine) Complete(o *order.Order, actor user.User) bool {
	if o.Validate() != nil || actor.Validate() != nil {
		return false
	}
	return o.Complete(actor.ID(), sm.now())
}

// Cancel cancels an order that is not yet Completed or Canceled. reason is recorded as given.
func (sm OrderStateMachine) Cancel(o *order.Order, _ user.User, reason string) bool {
	if o.Validate() != nil {
		return false
	}
	return o.Cancel(reason, sm.now())
}

// ProcessPayment applies a payment outcome to a Pending order: success pays it,
// failure cancels it.
func (sm OrderStateMachine) ProcessPayment(o *order.Order, success bool) bool {
	if o.Validate() != nil || o.Status() != order.Pending {
		return false
	}
	if !success {
		return o.Cancel(PaymentFailedReason, sm.now())
	}
	changed, err := o.Transition(order.Paid, order.Changes{}, sm.now())
	return err == nil && changed
}

// Refund cancels a Paid order.
func (sm OrderStateMachine) Refund(o *order.Order, reason string) bool {
	if o.Validate() != nil || o.Status() != order.Paid {
		return false
	}
	return o.Cancel(reason, sm.now())
}
