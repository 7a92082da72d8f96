package commands

import (
	"context"
	"errors"

	"workorders/internal/core/ports"
	"workorders/internal/pkg/errs"
)

// MarkNotificationReadCommandHandler records that a recipient read a notification.
type MarkNotificationReadCommandHandler struct {
	store ports.NotificationStore
}

func NewMarkNotificationReadCommandHandler(store ports.NotificationStore) (MarkNotificationReadCommandHandler, error) {
	if store == nil {
		return MarkNotificationReadCommandHandler{}, errors.New("notification store is required")
	}
	return MarkNotificationReadCommandHandler{store: store}, nil
}

// Handle only lets the recipient mark a record. Reading a Read record again reports false;
// reading a Pending or Failed record yields errs.InvalidTransitionError.
func (h MarkNotificationReadCommandHandler) Handle(ctx context.Context, command MarkNotificationReadCommand) (bool, error) {
	if err := command.Validate(); err != nil {
		return false, err
	}

	n, err := h.store.Get(ctx, command.NotificationID())
	if err != nil {
		return false, err
	}
	if !n.RecipientID().IsEqual(command.Actor().ID()) {
		return false, errs.NewPermissionDeniedErrorWithReason("mark notification read", "only the recipient can")
	}

	return h.store.MarkRead(ctx, n.ID())
}
