package commands

import (
	"context"
	"errors"
	"log/slog"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/core/ports"
	"workorders/internal/pkg/keyedmutex"
	"workorders/internal/pkg/metrics"
)

// mutation receives the stored order and returns the order to save. It returns nil when
// there is nothing to save, either because the request is a no-op or a precondition is false.
type mutation func(ctx context.Context, uow OrderUoW, current *order.Order) (*order.Order, error)

// publication tells the notifier about a committed change.
type publication func(ctx context.Context, n ports.OrderEventNotifier, before, after *order.Order) error

// OrderWriter runs order changes one at a time per order.
//
// The per-order lock is held from load to event notification, so events of one order reach
// the notifier in commit order. Notification errors are logged and never undo a commit.
type OrderWriter struct {
	uowFactory OrderUoWFactory
	locks      *keyedmutex.KeyedMutex
	notifier   ports.OrderEventNotifier
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

func NewOrderWriter(
	uowFactory OrderUoWFactory,
	locks *keyedmutex.KeyedMutex,
	notifier ports.OrderEventNotifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) (OrderWriter, error) {
	if uowFactory == nil {
		return OrderWriter{}, errors.New("unit of work factory is required")
	}
	if locks == nil {
		locks = keyedmutex.New()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return OrderWriter{
		uowFactory: uowFactory,
		locks:      locks,
		notifier:   notifier,
		metrics:    m,
		logger:     logger.With("component", "order_writer"),
	}, nil
}

// Result is what an order command produced.
type Result struct {
	// Order is the stored order after the command; it is the unchanged order when Changed is false.
	Order   *order.Order
	Changed bool
}

func (w OrderWriter) write(
	ctx context.Context,
	orderID kernel.UUID,
	actor user.User,
	mutate mutation,
	publish publication,
) (Result, error) {
	unlock := w.locks.Lock(orderID.String())
	defer unlock()

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return Result{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	current, err := uow.OrderRepository().Get(ctx, orderID)
	if err != nil {
		return Result{}, err
	}

	next, err := mutate(ctx, uow, current)
	if err != nil {
		return Result{}, err
	}
	if next == nil || next == current {
		return Result{Order: current}, nil
	}

	if err = uow.OrderRepository().Update(ctx, next); err != nil {
		return Result{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return Result{}, err
	}

	if current.Status() != next.Status() {
		w.metrics.Transition(current.Status().String(), next.Status().String())
		w.logger.InfoContext(ctx, "order status changed",
			"order_id", orderID.String(),
			"actor_id", actor.ID().String(),
			"from", current.Status().String(),
			"to", next.Status().String(),
			"version", next.Version(),
		)
	}

	if w.notifier != nil && publish != nil {
		if err := publish(ctx, w.notifier, current, next); err != nil {
			w.logger.WarnContext(ctx, "order event notification failed",
				"order_id", orderID.String(),
				"error", err,
			)
		}
	}

	return Result{Order: next, Changed: true}, nil
}

// add stores a new order and publishes its creation.
func (w OrderWriter) add(ctx context.Context, o *order.Order) error {
	unlock := w.locks.Lock(o.ID().String())
	defer unlock()

	uow := w.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err := uow.OrderRepository().Add(ctx, o); err != nil {
		return err
	}

	if err := uow.Commit(ctx); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "order created", "order_id", o.ID().String(), "client_id", o.ClientID().String())
	if w.notifier != nil {
		if err := w.notifier.OrderCreated(ctx, o); err != nil {
			w.logger.WarnContext(ctx, "order event notification failed", "order_id", o.ID().String(), "error", err)
		}
	}
	return nil
}

// statusChanged publishes OrderUpdated, plus WorkerAssigned when the change attached a worker.
func statusChanged(ctx context.Context, n ports.OrderEventNotifier, before, after *order.Order) error {
	var errList []error
	if before.Status() != after.Status() {
		errList = append(errList, n.OrderUpdated(ctx, after, before.Status()))
	}
	if !before.HasWorker() && after.HasWorker() {
		errList = append(errList, n.WorkerAssigned(ctx, after))
	}
	return errors.Join(errList...)
}
