package commands

import (
	"context"
	"errors"
	"log/slog"

	"workorders/internal/core/domain/model/notification"
	"workorders/internal/core/domain/services"
	"workorders/internal/core/ports"
	"workorders/internal/pkg/errs"
)

// ResendNotificationCommandHandler lets admins retry a notification under its original id.
type ResendNotificationCommandHandler struct {
	store       ports.NotificationStore
	redeliverer ports.NotificationRedeliverer
	policy      services.AuthorizationPolicy
	logger      *slog.Logger
}

func NewResendNotificationCommandHandler(
	store ports.NotificationStore,
	redeliverer ports.NotificationRedeliverer,
	logger *slog.Logger,
) (ResendNotificationCommandHandler, error) {
	if store == nil {
		return ResendNotificationCommandHandler{}, errors.New("notification store is required")
	}
	if redeliverer == nil {
		return ResendNotificationCommandHandler{}, errors.New("redeliverer is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return ResendNotificationCommandHandler{
		store:       store,
		redeliverer: redeliverer,
		policy:      services.NewAuthorizationPolicy(),
		logger:      logger.With("component", "resend_notification"),
	}, nil
}

// Handle resets the record to Pending and attempts delivery right away. The returned record
// is Sent when a live channel of the recipient accepted it and Pending otherwise.
func (h ResendNotificationCommandHandler) Handle(
	ctx context.Context,
	command ResendNotificationCommand,
) (*notification.Notification, error) {
	if err := command.Validate(); err != nil {
		return nil, err
	}
	if !h.policy.CanResendNotifications(command.Actor()) {
		return nil, errs.NewPermissionDeniedError("resend notification")
	}

	n, err := h.store.Resend(ctx, command.NotificationID())
	if err != nil {
		return nil, err
	}

	delivered, err := h.redeliverer.Redeliver(ctx, n)
	if err != nil {
		h.logger.WarnContext(ctx, "resent notification could not be marked",
			"notification_id", n.ID().String(),
			"error", err,
		)
	}
	if !delivered {
		return n, nil
	}

	return h.store.Get(ctx, n.ID())
}
