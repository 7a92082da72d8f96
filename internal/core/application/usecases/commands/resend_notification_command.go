package commands

import (
	"errors"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/guard"
)

var ErrResendNotificationCommandIsNotConstructed = errors.New(
	"ResendNotificationCommand must be created via NewResendNotificationCommand constructor",
)

// ResendNotificationCommand puts a notification back to Pending and tries to deliver it again.
type ResendNotificationCommand struct {
	actor          user.User
	notificationID kernel.UUID

	guard guard.ConstructorGuard
}

func NewResendNotificationCommand(actor user.User, notificationID kernel.UUID) (ResendNotificationCommand, error) {
	if err := errors.Join(actor.Validate(), notificationID.Validate()); err != nil {
		return ResendNotificationCommand{}, err
	}
	return ResendNotificationCommand{
		actor:          actor,
		notificationID: notificationID,
		guard:          guard.NewConstructorGuard(),
	}, nil
}

func (c ResendNotificationCommand) Validate() error {
	return c.guard.Validate(ErrResendNotificationCommandIsNotConstructed)
}

func (c ResendNotificationCommand) Actor() user.User            { return c.actor }
func (c ResendNotificationCommand) NotificationID() kernel.UUID { return c.notificationID }
