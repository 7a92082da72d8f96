package order

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/guard"
)

const maxServiceNameLength = 255

var (
	// ErrOrderIsNotConstructed is returned when an Order was not created through NewOrder or RestoreOrder.
	ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")
)

// Order is the aggregate root of a single service request.
//
// Invariants:
//   - price is a positive amount in the smallest currency unit
//   - paidAt is set once the order has reached Paid, and never overwritten
//   - completedAt is set only when the order is Completed
//   - workerID, when set, refers to a user with the Worker role
//   - version grows by one with every persisted write
//
// clientGender is captured from the client at creation and drives gender matching.
type Order struct {
	id           kernel.UUID
	serviceName  string
	description  string
	price        int
	status       Status
	clientID     kernel.UUID
	clientGender kernel.Gender
	workerID     *kernel.UUID
	cancelReason string
	createdAt    time.Time
	updatedAt    time.Time
	paidAt       *time.Time
	completedAt  *time.Time
	version      int64

	guard guard.ConstructorGuard
}

// Changes carries optional updates to the descriptive fields of an order.
// Nil fields are left untouched.
type Changes struct {
	ServiceName *string
	Description *string
	Price       *int
}

// IsEmpty reports whether c updates nothing.
func (c Changes) IsEmpty() bool {
	return c.ServiceName == nil && c.Description == nil && c.Price == nil
}

func (c Changes) validate() error {
	var errList []error
	if c.ServiceName != nil {
		errList = append(errList, validateServiceName(*c.ServiceName))
	}
	if c.Price != nil {
		errList = append(errList, validatePrice(*c.Price))
	}
	return errors.Join(errList...)
}

// NewOrder creates a Pending order for client.
//
// Example:
//
//	o, err := order.NewOrder(kernel.NewUUID(), client, "Deep cleaning", "Two rooms", 15000, time.Now())
func NewOrder(
	id kernel.UUID,
	client user.User,
	serviceName, description string,
	price int,
	now time.Time,
) (*Order, error) {
	if err := errors.Join(
		id.Validate(),
		client.Validate(),
		validateServiceName(serviceName),
		validatePrice(price),
	); err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Order{
		id:           id,
		serviceName:  strings.TrimSpace(serviceName),
		description:  description,
		price:        price,
		status:       Pending,
		clientID:     client.ID(),
		clientGender: client.Gender(),
		createdAt:    now,
		updatedAt:    now,
		version:      1,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// Snapshot is the flat, exported state of an order used by persistence and read models.
type Snapshot struct {
	ID           kernel.UUID
	ServiceName  string
	Description  string
	Price        int
	Status       Status
	ClientID     kernel.UUID
	ClientGender kernel.Gender
	WorkerID     *kernel.UUID
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	PaidAt       *time.Time
	CompletedAt  *time.Time
	Version      int64
}

// RestoreOrder rebuilds an order from persisted state, checking the aggregate invariants.
func RestoreOrder(s Snapshot) (*Order, error) {
	if err := errors.Join(
		s.ID.Validate(),
		s.ClientID.Validate(),
		s.ClientGender.Validate(),
		validatePrice(s.Price),
		s.Status.Validate(),
	); err != nil {
		return nil, err
	}

	if s.Version < 1 {
		return nil, errs.NewVersionIsInvalidError("version", fmt.Errorf("%d is below 1", s.Version))
	}
	if s.WorkerID == nil && (s.Status == InProgress || s.Status == Completed) {
		return nil, errs.NewValueIsRequiredErrorWithCause("worker",
			fmt.Errorf("%s orders must have a worker", s.Status))
	}
	if s.CompletedAt != nil && s.Status != Completed {
		return nil, errs.NewValueIsInvalidErrorWithCause("completedAt",
			fmt.Errorf("%s orders cannot carry a completion time", s.Status))
	}

	return &Order{
		id:           s.ID,
		serviceName:  s.ServiceName,
		description:  s.Description,
		price:        s.Price,
		status:       s.Status,
		clientID:     s.ClientID,
		clientGender: s.ClientGender,
		workerID:     copyUUID(s.WorkerID),
		cancelReason: s.CancelReason,
		createdAt:    s.CreatedAt,
		updatedAt:    s.UpdatedAt,
		paidAt:       copyTime(s.PaidAt),
		completedAt:  copyTime(s.CompletedAt),
		version:      s.Version,
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// Snapshot returns a deep copy of the order's state.
func (o *Order) Snapshot() Snapshot {
	return Snapshot{
		ID:           o.id,
		ServiceName:  o.serviceName,
		Description:  o.description,
		Price:        o.price,
		Status:       o.status,
		ClientID:     o.clientID,
		ClientGender: o.clientGender,
		WorkerID:     copyUUID(o.workerID),
		CancelReason: o.cancelReason,
		CreatedAt:    o.createdAt,
		UpdatedAt:    o.updatedAt,
		PaidAt:       copyTime(o.paidAt),
		CompletedAt:  copyTime(o.completedAt),
		Version:      o.version,
	}
}

// Clone returns an independent copy of the order.
func (o *Order) Clone() *Order {
	c := *o
	c.workerID = copyUUID(o.workerID)
	c.paidAt = copyTime(o.paidAt)
	c.completedAt = copyTime(o.completedAt)
	return &c
}

// Validate ensures the order was built by NewOrder or RestoreOrder.
func (o *Order) Validate() error {
	if o == nil {
		return ErrOrderIsNotConstructed
	}
	return o.guard.Validate(ErrOrderIsNotConstructed)
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID               { return o.id }
func (o *Order) ServiceName() string           { return o.serviceName }
func (o *Order) Description() string           { return o.description }
func (o *Order) Price() int                    { return o.price }
func (o *Order) Status() Status                { return o.status }
func (o *Order) ClientID() kernel.UUID         { return o.clientID }
func (o *Order) ClientGender() kernel.Gender   { return o.clientGender }
func (o *Order) CancelReason() string          { return o.cancelReason }
func (o *Order) CreatedAt() time.Time          { return o.createdAt }
func (o *Order) UpdatedAt() time.Time          { return o.updatedAt }
func (o *Order) Version() int64                { return o.version }
func (o *Order) WorkerID() *kernel.UUID        { return copyUUID(o.workerID) }
func (o *Order) PaidAt() *time.Time            { return copyTime(o.paidAt) }
func (o *Order) CompletedAt() *time.Time       { return copyTime(o.completedAt) }
func (o *Order) HasWorker() bool               { return o.workerID != nil }
func (o *Order) IsOwnedBy(id kernel.UUID) bool { return o.clientID.IsEqual(id) }

// IsAssignedTo reports whether id is the assigned worker.
func (o *Order) IsAssignedTo(id kernel.UUID) bool {
	return o.workerID != nil && !id.IsZero() && o.workerID.IsEqual(id)
}

// AdvanceVersion is called by the persistence layer after a successful versioned write.
func (o *Order) AdvanceVersion() {
	o.version++
}

// Transition moves the order to requested and applies changes in one step.
//
// Requesting the current status with no changes is a no-op and returns (false, nil).
// An edge missing from the transition table yields an InvalidTransitionError; invalid changes
// yield validation errors. Either way the order is left untouched.
func (o *Order) Transition(requested Status, changes Changes, now time.Time) (bool, error) {
	if requested == o.status {
		if changes.IsEmpty() {
			return false, nil
		}
		if err := changes.validate(); err != nil {
			return false, err
		}
		o.apply(changes)
		o.touch(now)
		return true, nil
	}

	if err := requested.Validate(); err != nil {
		return false, err
	}
	if !IsLegal(o.status, requested) {
		return false, errs.NewInvalidTransitionError("order", o.status, requested)
	}
	if requested == InProgress && o.workerID == nil {
		return false, errs.NewPreconditionFailedError("start work without an assigned worker")
	}
	if err := changes.validate(); err != nil {
		return false, err
	}

	o.apply(changes)
	o.moveTo(requested, now)
	return true, nil
}

// AssignWorker attaches worker to a Paid order that has none yet.
// It returns false when the order is not assignable or worker is not a Worker.
func (o *Order) AssignWorker(worker user.User, now time.Time) bool {
	if o.status != Paid || o.workerID != nil {
		return false
	}
	if worker.Validate() != nil || worker.Role() != user.Worker {
		return false
	}

	id := worker.ID()
	o.workerID = &id
	o.touch(now)
	return true
}

// StartWork moves a Paid order to InProgress when actorID is the assigned worker.
func (o *Order) StartWork(actorID kernel.UUID, now time.Time) bool {
	if o.status != Paid || !o.IsAssignedTo(actorID) {
		return false
	}
	o.moveTo(InProgress, now)
	return true
}

// Complete moves an InProgress order to Completed when actorID is the assigned worker.
func (o *Order) Complete(actorID kernel.UUID, now time.Time) bool {
	if o.status != InProgress || !o.IsAssignedTo(actorID) {
		return false
	}
	o.moveTo(Completed, now)
	return true
}

// Cancel moves a Pending, Paid or InProgress order to Canceled, recording reason as given.
func (o *Order) Cancel(reason string, now time.Time) bool {
	if !o.status.IsCancelable() {
		return false
	}
	o.cancelReason = reason
	o.moveTo(Canceled, now)
	return true
}

func (o *Order) apply(c Changes) {
	if c.ServiceName != nil {
		o.serviceName = strings.TrimSpace(*c.ServiceName)
	}
	if c.Description != nil {
		o.description = *c.Description
	}
	if c.Price != nil {
		o.price = *c.Price
	}
}

func (o *Order) moveTo(next Status, now time.Time) {
	now = now.UTC()
	o.status = next

	switch next {
	case Paid:
		if o.paidAt == nil {
			o.paidAt = &now
		}
	case Completed:
		if o.completedAt == nil {
			o.completedAt = &now
		}
	case Unknown, Pending, InProgress, Canceled:
	}

	o.updatedAt = now
}

func (o *Order) touch(now time.Time) {
	o.updatedAt = now.UTC()
}

func validateServiceName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return errs.NewValueIsRequiredError("serviceName")
	}
	if len(name) > maxServiceNameLength {
		return errs.NewValueIsOutOfRangeError("serviceName length", len(name), 1, maxServiceNameLength)
	}
	return nil
}

func validatePrice(price int) error {
	if price < 1 {
		return errs.NewValueIsOutOfRangeError("price", price, 1, "unbounded")
	}
	return nil
}

func copyUUID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
