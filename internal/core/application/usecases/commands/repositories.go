// Package commands contains the operations that change orders and notifications.
// Every order write follows the same path: per-order lock, unit of work, load, authorize,
// state machine, versioned update, commit, then event notification.
package commands

import (
	"context"

	"workorders/internal/core/ports"
)

// Unit of Work interfaces narrow ports.UnitOfWork to what the handlers use.
type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	UserRepoFactory interface {
		UserRepository() ports.UserRepository
	}

	// OrderUoW manages transactions for order writes. Users are read inside the same
	// transaction to resolve assigned workers.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   o, err := uow.OrderRepository().Get(ctx, id)
	//   worker, err := uow.UserRepository().Get(ctx, workerID)
	//   // ... change o
	//
	//   err = uow.Commit(ctx)
	OrderUoW interface {
		TxManager
		OrderRepoFactory
		UserRepoFactory
	}

	// OrderUoWFactory creates new order unit of work instances.
	OrderUoWFactory interface {
		Create() OrderUoW
	}
)
