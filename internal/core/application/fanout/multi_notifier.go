package fanout

import (
	"context"
	"errors"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/ports"
)

var _ ports.OrderEventNotifier = MultiNotifier(nil)

// MultiNotifier forwards every event to each notifier in turn and joins their errors.
type MultiNotifier []ports.OrderEventNotifier

func (m MultiNotifier) OrderCreated(ctx context.Context, o *order.Order) error {
	return m.each(func(n ports.OrderEventNotifier) error { return n.OrderCreated(ctx, o) })
}

func (m MultiNotifier) OrderUpdated(ctx context.Context, o *order.Order, oldStatus order.Status) error {
	return m.each(func(n ports.OrderEventNotifier) error { return n.OrderUpdated(ctx, o, oldStatus) })
}

func (m MultiNotifier) PaymentProcessed(ctx context.Context, o *order.Order, success bool) error {
	return m.each(func(n ports.OrderEventNotifier) error { return n.PaymentProcessed(ctx, o, success) })
}

func (m MultiNotifier) WorkerAssigned(ctx context.Context, o *order.Order) error {
	return m.each(func(n ports.OrderEventNotifier) error { return n.WorkerAssigned(ctx, o) })
}

func (m MultiNotifier) each(call func(n ports.OrderEventNotifier) error) error {
	var errList []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := call(n); err != nil {
			errList = append(errList, err)
		}
	}
	return errors.Join(errList...)
}
