package notification

import (
	"fmt"

	"workorders/internal/pkg/errs"
)

// Type is the event kind a notification reports. Its value is the wire name.
type Type string

const (
	OrderCreated   Type = "order_created"
	NewOrder       Type = "new_order"
	OrderUpdated   Type = "order_updated"
	OrderCanceled  Type = "order_canceled"
	PaymentSuccess Type = "payment_success"
	PaymentFailed  Type = "payment_failed"
	WorkerAssigned Type = "worker_assigned"
	System         Type = "system"
	Info           Type = "info"
	Warning        Type = "warning"
	Error          Type = "error"
)

// AllTypes lists every known notification type.
func AllTypes() []Type {
	return []Type{
		OrderCreated, NewOrder, OrderUpdated, OrderCanceled,
		PaymentSuccess, PaymentFailed, WorkerAssigned,
		System, Info, Warning, Error,
	}
}

func ParseType(s string) (Type, error) {
	t := Type(s)
	if err := t.Validate(); err != nil {
		return "", err
	}
	return t, nil
}

func (t Type) Validate() error {
	for _, known := range AllTypes() {
		if t == known {
			return nil
		}
	}
	return errs.NewValueIsInvalidErrorWithCause("type", fmt.Errorf("%q is not a notification type", string(t)))
}

// DefaultPriority is the priority the dispatcher assigns to events of type t.
func (t Type) DefaultPriority() Priority {
	switch t {
	case PaymentFailed, OrderCanceled, Error:
		return High
	case NewOrder, WorkerAssigned, PaymentSuccess, Warning:
		return Normal
	case OrderCreated, OrderUpdated, System, Info:
		return Low
	}
	return Normal
}

func (t Type) String() string {
	return string(t)
}
