// Package ports declares the contracts between the order/notification core and its adapters:
// persistence, identity verification, live delivery channels and event notification.
package ports

import (
	"context"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/order"
)

// OrderRepository defines the persistence contract for order aggregates.
type OrderRepository interface {
	// Add persists a new order aggregate.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the order only if the stored version still equals aggregate.Version().
	// On success the stored version and aggregate.Version() both advance by one.
	// A stale version yields errs.VersionConflictError and nothing is written.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get retrieves an order by ID or returns errs.ObjectNotFoundError.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)
}
