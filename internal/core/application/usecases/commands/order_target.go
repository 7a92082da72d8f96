package commands

import (
	"errors"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
)

// orderTarget is the actor and order every order command refers to.
type orderTarget struct {
	actor   user.User
	orderID kernel.UUID
}

func newOrderTarget(actor user.User, orderID kernel.UUID) (orderTarget, error) {
	if err := errors.Join(actor.Validate(), orderID.Validate()); err != nil {
		return orderTarget{}, err
	}
	return orderTarget{actor: actor, orderID: orderID}, nil
}

// Actor returns the verified identity issuing the command.
func (t orderTarget) Actor() user.User {
	return t.actor
}

func (t orderTarget) OrderID() kernel.UUID {
	return t.orderID
}
