package commands

import (
	"errors"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/guard"
)

var ErrCreateOrderCommandIsNotConstructed = errors.New(
	"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
)

// CreateOrderCommand represents a client's request for a new service order.
//
// Example:
//
//	cmd, err := NewCreateOrderCommand(actor, kernel.NewUUID(), "Deep cleaning", "two rooms", 1000)
//	if err != nil {
//	    return fmt.Errorf("invalid order data: %w", err)
//	}
//
//	if err := handler.Handle(ctx, cmd); err != nil {
//	    return fmt.Errorf("failed to create order: %w", err)
//	}
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	target      orderTarget
	serviceName string
	description string
	price       int

	guard guard.ConstructorGuard
}

// NewCreateOrderCommand checks the identifiers. Field rules are enforced by order.NewOrder.
func NewCreateOrderCommand(
	actor user.User,
	orderID kernel.UUID,
	serviceName, description string,
	price int,
) (CreateOrderCommand, error) {
	target, err := newOrderTarget(actor, orderID)
	if err != nil {
		return CreateOrderCommand{}, err
	}

	return CreateOrderCommand{
		target:      target,
		serviceName: serviceName,
		description: description,
		price:       price,
		guard:       guard.NewConstructorGuard(),
	}, nil
}

// Validate ensures the command was created through the constructor.
func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) Actor() user.User     { return c.target.Actor() }
func (c CreateOrderCommand) OrderID() kernel.UUID { return c.target.OrderID() }
func (c CreateOrderCommand) ServiceName() string  { return c.serviceName }
func (c CreateOrderCommand) Description() string  { return c.description }
func (c CreateOrderCommand) Price() int           { return c.price }
