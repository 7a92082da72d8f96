package fanout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/notification"
	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/ports"
	"workorders/internal/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultSendTimeout = 5 * time.Second
	DefaultParallelism = 16
)

var _ ports.OrderEventNotifier = (*FanoutDispatcher)(nil)

type Options struct {
	// SendTimeout bounds a single send to one channel.
	SendTimeout time.Duration
	// Parallelism caps concurrent sends of one broadcast.
	Parallelism int
	Clock       func() time.Time
}

// FanoutDispatcher turns order events into notification records and pushes them to live channels.
//
// Every record is created Pending before any send. A record becomes Sent once a channel owned by its
// recipient accepts the envelope; otherwise it stays Pending for redelivery. Per-channel failures are
// logged and counted, never returned.
type FanoutDispatcher struct {
	registry *ConnectionRegistry
	store    ports.NotificationStore
	users    ports.UserRepository
	logger   *slog.Logger
	metrics  *metrics.Metrics

	sendTimeout time.Duration
	parallelism int
	now         func() time.Time
}

func NewFanoutDispatcher(
	registry *ConnectionRegistry,
	store ports.NotificationStore,
	users ports.UserRepository,
	logger *slog.Logger,
	m *metrics.Metrics,
	opts Options,
) (*FanoutDispatcher, error) {
	if registry == nil {
		return nil, errors.New("registry is required")
	}
	if store == nil {
		return nil, errors.New("notification store is required")
	}
	if users == nil {
		return nil, errors.New("user repository is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = DefaultSendTimeout
	}
	if opts.Parallelism <= 0 {
		opts.Parallelism = DefaultParallelism
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &FanoutDispatcher{
		registry:    registry,
		store:       store,
		users:       users,
		logger:      logger.With("component", "fanout_dispatcher"),
		metrics:     m,
		sendTimeout: opts.SendTimeout,
		parallelism: opts.Parallelism,
		now:         opts.Clock,
	}, nil
}

// notice is one notification addressed to the channels of a group and recorded for each recipient.
type notice struct {
	group      string
	typ        notification.Type
	title      string
	message    string
	orderID    kernel.UUID
	recipients []kernel.UUID
	payload    map[string]any
}

func (d *FanoutDispatcher) OrderCreated(ctx context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	clientErr := d.dispatch(ctx, notice{
		group:      ClientGroup(o.ClientID()),
		typ:        notification.OrderCreated,
		title:      "Order created",
		message:    fmt.Sprintf("Your order %q has been created", o.ServiceName()),
		orderID:    o.ID(),
		recipients: []kernel.UUID{o.ClientID()},
		payload:    orderPayload(notification.OrderCreated, o),
	})

	workers, err := d.workersFor(ctx, o)
	if err != nil {
		return errors.Join(clientErr, err)
	}
	payload := orderPayload(notification.NewOrder, o)
	payload["service_name"] = o.ServiceName()
	payload["price"] = o.Price()

	return errors.Join(clientErr, d.dispatch(ctx, notice{
		group:      WorkerGenderGroup(o.ClientGender()),
		typ:        notification.NewOrder,
		title:      "New order available",
		message:    fmt.Sprintf("New order %q is waiting for a worker", o.ServiceName()),
		orderID:    o.ID(),
		recipients: workers,
		payload:    payload,
	}))
}

// OrderUpdated does nothing when the status did not change.
func (d *FanoutDispatcher) OrderUpdated(ctx context.Context, o *order.Order, oldStatus order.Status) error {
	if err := o.Validate(); err != nil {
		return err
	}
	if o.Status() == oldStatus {
		return nil
	}

	message := fmt.Sprintf("Order %q moved from %s to %s", o.ServiceName(), oldStatus, o.Status())
	payload := orderPayload(notification.OrderUpdated, o)
	payload["old_status"] = oldStatus.String()
	if o.Status() == order.Canceled {
		message = fmt.Sprintf("Order %q has been canceled", o.ServiceName())
		payload["cancel_reason"] = o.CancelReason()
	}

	clientErr := d.dispatch(ctx, notice{
		group:      ClientGroup(o.ClientID()),
		typ:        notification.OrderUpdated,
		title:      "Order updated",
		message:    message,
		orderID:    o.ID(),
		recipients: []kernel.UUID{o.ClientID()},
		payload:    payload,
	})

	if o.Status() != order.InProgress && o.Status() != order.Completed {
		return clientErr
	}

	workers, err := d.workersFor(ctx, o)
	if err != nil {
		return errors.Join(clientErr, err)
	}
	return errors.Join(clientErr, d.dispatch(ctx, notice{
		group:      WorkerGenderGroup(o.ClientGender()),
		typ:        notification.OrderUpdated,
		title:      "Order updated",
		message:    fmt.Sprintf("Order %q is now %s", o.ServiceName(), o.Status()),
		orderID:    o.ID(),
		recipients: workers,
		payload:    orderPayload(notification.OrderUpdated, o),
	}))
}

func (d *FanoutDispatcher) PaymentProcessed(ctx context.Context, o *order.Order, success bool) error {
	if err := o.Validate(); err != nil {
		return err
	}

	typ := notification.PaymentSuccess
	title := "Payment received"
	if !success {
		typ = notification.PaymentFailed
		title = "Payment failed"
	}

	clientErr := d.dispatch(ctx, notice{
		group:      ClientGroup(o.ClientID()),
		typ:        typ,
		title:      title,
		message:    fmt.Sprintf("%s for order %q", title, o.ServiceName()),
		orderID:    o.ID(),
		recipients: []kernel.UUID{o.ClientID()},
		payload:    orderPayload(typ, o),
	})

	workers, err := d.workersFor(ctx, o)
	if err != nil {
		return errors.Join(clientErr, err)
	}
	return errors.Join(clientErr, d.dispatch(ctx, notice{
		group:      WorkerGenderGroup(o.ClientGender()),
		typ:        typ,
		title:      title,
		message:    fmt.Sprintf("%s for order %q", title, o.ServiceName()),
		orderID:    o.ID(),
		recipients: workers,
		payload:    orderPayload(typ, o),
	}))
}

// WorkerAssigned notifies the client and the personal group of the assigned worker.
func (d *FanoutDispatcher) WorkerAssigned(ctx context.Context, o *order.Order) error {
	if err := o.Validate(); err != nil {
		return err
	}
	workerID := o.WorkerID()
	if workerID == nil {
		return nil
	}

	payload := orderPayload(notification.WorkerAssigned, o)
	payload["worker_id"] = workerID.String()

	return errors.Join(
		d.dispatch(ctx, notice{
			group:      ClientGroup(o.ClientID()),
			typ:        notification.WorkerAssigned,
			title:      "Worker assigned",
			message:    fmt.Sprintf("A worker has been assigned to order %q", o.ServiceName()),
			orderID:    o.ID(),
			recipients: []kernel.UUID{o.ClientID()},
			payload:    payload,
		}),
		d.dispatch(ctx, notice{
			group:      NotificationsGroup(*workerID),
			typ:        notification.WorkerAssigned,
			title:      "Order assigned to you",
			message:    fmt.Sprintf("You have been assigned to order %q", o.ServiceName()),
			orderID:    o.ID(),
			recipients: []kernel.UUID{*workerID},
			payload:    payload,
		}),
	)
}

// Redeliver pushes an existing Pending record to its recipient's live channels and marks it Sent
// when one of them accepts. It reports whether the record was accepted.
func (d *FanoutDispatcher) Redeliver(ctx context.Context, n *notification.Notification) (bool, error) {
	if err := n.Validate(); err != nil {
		return false, err
	}

	recipient := n.RecipientID()
	env := d.envelope(n.Type(), n.Metadata(), n.Title(), n.Message(), n.Priority()).
		With("notification_id", n.ID().String())

	accepted := d.deliver(ctx, []string{NotificationsGroup(recipient), ClientGroup(recipient)}, func(ports.Channel) notification.Envelope {
		return env
	})
	if !accepted[recipient] {
		return false, nil
	}
	if _, err := d.store.MarkSent(ctx, n.ID()); err != nil {
		return true, err
	}
	return true, nil
}

func (d *FanoutDispatcher) dispatch(ctx context.Context, n notice) error {
	if n.group == "" {
		return nil
	}

	records := make(map[kernel.UUID]kernel.UUID, len(n.recipients))
	for _, recipient := range n.recipients {
		id, err := d.persist(ctx, n, recipient)
		if err != nil {
			// Nothing is pushed for a notice whose records are incomplete; what was stored stays Pending.
			return fmt.Errorf("persist %s notification for %s: %w", n.typ, recipient, err)
		}
		records[recipient] = id
	}

	base := d.envelope(n.typ, n.payload, n.title, n.message, n.typ.DefaultPriority())
	accepted := d.deliver(ctx, []string{n.group}, func(ch ports.Channel) notification.Envelope {
		if id, ok := records[ch.UserID()]; ok {
			return base.With("notification_id", id.String())
		}
		return base
	})

	var errList []error
	for recipient, id := range records {
		if !accepted[recipient] {
			continue
		}
		if _, err := d.store.MarkSent(ctx, id); err != nil {
			errList = append(errList, fmt.Errorf("mark notification %s sent: %w", id, err))
		}
	}

	d.logger.InfoContext(ctx, "notification dispatched",
		"order_id", n.orderID.String(),
		"type", n.typ.String(),
		"group", n.group,
		"records", len(records),
		"accepted", len(accepted),
	)
	return errors.Join(errList...)
}

func (d *FanoutDispatcher) persist(ctx context.Context, n notice, recipient kernel.UUID) (kernel.UUID, error) {
	record, err := notification.NewNotification(notification.Params{
		ID:          kernel.NewUUID(),
		Type:        n.typ,
		Title:       n.title,
		Message:     n.message,
		RecipientID: recipient,
		Related:     &notification.RelatedEntity{Kind: "order", ID: n.orderID},
		Metadata:    n.payload,
	}, d.now())
	if err != nil {
		return kernel.UUID{}, err
	}

	id, err := d.store.Create(ctx, record)
	if err != nil {
		return kernel.UUID{}, err
	}
	d.metrics.NotificationCreated(n.typ.String())
	return id, nil
}

// deliver sends to every live member of groups once and returns the owners of the channels that accepted.
func (d *FanoutDispatcher) deliver(
	ctx context.Context,
	groups []string,
	build func(ch ports.Channel) notification.Envelope,
) map[kernel.UUID]bool {
	type target struct {
		channel ports.Channel
		kind    string
	}

	seen := make(map[string]struct{})
	var targets []target
	for _, group := range groups {
		members := d.registry.MembersOf(group)
		if len(members) == 0 {
			d.metrics.Delivery(GroupKind(group), metrics.ResultNoTarget)
		}
		for _, ch := range members {
			if _, dup := seen[ch.ID()]; dup {
				continue
			}
			seen[ch.ID()] = struct{}{}
			targets = append(targets, target{channel: ch, kind: GroupKind(group)})
		}
	}

	var mu sync.Mutex
	accepted := make(map[kernel.UUID]bool)

	var g errgroup.Group
	g.SetLimit(d.parallelism)
	for _, t := range targets {
		g.Go(func() error {
			sendCtx, cancel := context.WithTimeout(ctx, d.sendTimeout)
			defer cancel()

			if err := t.channel.Send(sendCtx, build(t.channel)); err != nil {
				d.metrics.Delivery(t.kind, metrics.ResultFailed)
				d.logger.WarnContext(ctx, "delivery to channel failed",
					"channel_id", t.channel.ID(),
					"user_id", t.channel.UserID().String(),
					"error", err,
				)
				return nil
			}

			d.metrics.Delivery(t.kind, metrics.ResultAccepted)
			mu.Lock()
			accepted[t.channel.UserID()] = true
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return accepted
}

func (d *FanoutDispatcher) envelope(
	typ notification.Type,
	payload map[string]any,
	title, message string,
	priority notification.Priority,
) notification.Envelope {
	p := maps.Clone(payload)
	if p == nil {
		p = map[string]any{}
	}
	p["title"] = title
	p["message"] = message
	p["priority"] = int(priority)
	return notification.NewEnvelope(typ.String(), p, d.now())
}

// workersFor lists the ids of workers serving the order's client segment.
func (d *FanoutDispatcher) workersFor(ctx context.Context, o *order.Order) ([]kernel.UUID, error) {
	if !o.ClientGender().IsSet() {
		return nil, nil
	}
	workers, err := d.users.GetWorkersByGender(ctx, o.ClientGender())
	if err != nil {
		return nil, fmt.Errorf("load workers for %s: %w", o.ClientGender(), err)
	}
	ids := make([]kernel.UUID, 0, len(workers))
	for _, w := range workers {
		ids = append(ids, w.ID())
	}
	return ids, nil
}

func orderPayload(event notification.Type, o *order.Order) map[string]any {
	return map[string]any{
		"event":    event.String(),
		"order_id": o.ID().String(),
		"status":   o.Status().String(),
	}
}
