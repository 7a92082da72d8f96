package ports

import (
	"context"
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/notification"
)

// NotificationStore is the durable record of notifications. Marks on the same record are
// linearized: each one applies to the state it observed or is retried against the new state.
//
// The Mark operations report whether the record changed. Repeating a mark is a no-op (false, nil),
// and an illegal move such as Failed -> Read yields errs.InvalidTransitionError.
type NotificationStore interface {
	Create(ctx context.Context, n *notification.Notification) (kernel.UUID, error)
	Get(ctx context.Context, id kernel.UUID) (*notification.Notification, error)
	MarkSent(ctx context.Context, id kernel.UUID) (bool, error)
	MarkRead(ctx context.Context, id kernel.UUID) (bool, error)
	MarkFailed(ctx context.Context, id kernel.UUID) (bool, error)

	// Resend forces the record back to Pending under the same ID and returns it.
	Resend(ctx context.Context, id kernel.UUID) (*notification.Notification, error)

	// RecordAttempt counts a redelivery that no channel accepted. It is a no-op unless the record is Pending.
	RecordAttempt(ctx context.Context, id kernel.UUID) (bool, error)

	// GetPending returns up to limit records that have been Pending since before and were not
	// attempted after it. Records never attempted come first, then the least recently attempted.
	GetPending(ctx context.Context, before time.Time, limit int) ([]*notification.Notification, error)
}
