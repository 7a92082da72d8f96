package commands

import (
	"context"
	"time"

	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/services"
	"workorders/internal/pkg/errs"
)

// CreateOrderCommandHandler creates Pending orders for clients.
type CreateOrderCommandHandler struct {
	writer OrderWriter
	policy services.AuthorizationPolicy
	now    func() time.Time
}

func NewCreateOrderCommandHandler(writer OrderWriter, clock func() time.Time) CreateOrderCommandHandler {
	if clock == nil {
		clock = time.Now
	}
	return CreateOrderCommandHandler{
		writer: writer,
		policy: services.NewAuthorizationPolicy(),
		now:    clock,
	}
}

// Handle stores the order and emits OrderCreated. Only clients may create orders.
func (h CreateOrderCommandHandler) Handle(ctx context.Context, command CreateOrderCommand) (*order.Order, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}
	if !h.policy.CanCreate(command.Actor()) {
		return nil, errs.NewPermissionDeniedErrorWithReason("create order", "only clients can create orders")
	}

	o, err := order.NewOrder(
		command.OrderID(),
		command.Actor(),
		command.ServiceName(),
		command.Description(),
		command.Price(),
		h.now(),
	)
	if err != nil {
		return nil, err
	}

	if err = h.writer.add(ctx, o); err != nil {
		return nil, err
	}
	return o, nil
}
