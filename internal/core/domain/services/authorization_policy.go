package services

import (
	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/model/user"
)

// AuthorizationPolicy answers "may actor do X with order O". Every predicate is total:
// an actor that fails validation or carries an unknown role is denied.
//
// Workers are matched to orders by the client's gender, captured on the order at creation.
// CanView and CanManage share that rule today but are kept apart so either can change alone.
type AuthorizationPolicy struct{}

func NewAuthorizationPolicy() AuthorizationPolicy {
	return AuthorizationPolicy{}
}

// CanCreate allows only clients to place orders.
func (AuthorizationPolicy) CanCreate(actor user.User) bool {
	if actor.Validate() != nil {
		return false
	}
	switch actor.Role() {
	case user.Client:
		return true
	case user.Worker, user.Admin, user.UnknownRole:
		return false
	}
	return false
}

// CanView allows admins, the owning client and workers matching the client's gender.
// The assigned worker keeps access even if the match no longer holds.
func (AuthorizationPolicy) CanView(actor user.User, o *order.Order) bool {
	if !valid(actor, o) {
		return false
	}
	switch actor.Role() {
	case user.Admin:
		return true
	case user.Client:
		return o.IsOwnedBy(actor.ID())
	case user.Worker:
		return actor.Gender().Matches(o.ClientGender()) || o.IsAssignedTo(actor.ID())
	case user.UnknownRole:
		return false
	}
	return false
}

// CanUpdate allows admins and the assigned worker.
func (AuthorizationPolicy) CanUpdate(actor user.User, o *order.Order) bool {
	if !valid(actor, o) {
		return false
	}
	switch actor.Role() {
	case user.Admin:
		return true
	case user.Worker:
		return o.IsAssignedTo(actor.ID())
	case user.Client, user.UnknownRole:
		return false
	}
	return false
}

// CanManage gates assignment, start and completion: admins and workers matching the client's gender.
func (AuthorizationPolicy) CanManage(actor user.User, o *order.Order) bool {
	if !valid(actor, o) {
		return false
	}
	switch actor.Role() {
	case user.Admin:
		return true
	case user.Worker:
		return actor.Gender().Matches(o.ClientGender())
	case user.Client, user.UnknownRole:
		return false
	}
	return false
}

// CanCancel allows admins at any time, the owning client while the order is Pending
// and the assigned worker while it is InProgress.
func (AuthorizationPolicy) CanCancel(actor user.User, o *order.Order) bool {
	if !valid(actor, o) {
		return false
	}
	switch actor.Role() {
	case user.Admin:
		return true
	case user.Client:
		return o.IsOwnedBy(actor.ID()) && o.Status() == order.Pending
	case user.Worker:
		return o.IsAssignedTo(actor.ID()) && o.Status() == order.InProgress
	case user.UnknownRole:
		return false
	}
	return false
}

// CanPay allows admins and the owning client to report a payment outcome or request a refund.
func (AuthorizationPolicy) CanPay(actor user.User, o *order.Order) bool {
	if !valid(actor, o) {
		return false
	}
	switch actor.Role() {
	case user.Admin:
		return true
	case user.Client:
		return o.IsOwnedBy(actor.ID())
	case user.Worker, user.UnknownRole:
		return false
	}
	return false
}

// CanResendNotifications is reserved for admins.
func (AuthorizationPolicy) CanResendNotifications(actor user.User) bool {
	return actor.Validate() == nil && actor.IsAdmin()
}

func valid(actor user.User, o *order.Order) bool {
	return actor.Validate() == nil && o.Validate() == nil
}
