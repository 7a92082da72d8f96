package ports

import (
	"context"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/notification"
	"workorders/internal/core/domain/model/order"
)

// Channel is one live connection able to receive envelopes.
// Send must respect ctx and return promptly once the channel is closed.
type Channel interface {
	ID() string
	UserID() kernel.UUID
	Send(ctx context.Context, env notification.Envelope) error
}

// OrderEventNotifier is told about committed order changes. Implementations deliver
// notifications or publish events; their errors never undo the change.
type OrderEventNotifier interface {
	OrderCreated(ctx context.Context, o *order.Order) error
	OrderUpdated(ctx context.Context, o *order.Order, oldStatus order.Status) error
	PaymentProcessed(ctx context.Context, o *order.Order, success bool) error
	WorkerAssigned(ctx context.Context, o *order.Order) error
}

// NotificationRedeliverer pushes a stored Pending notification to its recipient's live channels
// and reports whether one of them accepted it.
type NotificationRedeliverer interface {
	Redeliver(ctx context.Context, n *notification.Notification) (bool, error)
}
