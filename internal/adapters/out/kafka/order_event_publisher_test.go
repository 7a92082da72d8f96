package kafka_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"workorders/internal/adapters/out/kafka"
	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/model/user"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)

type recordingWriter struct {
	mu   sync.Mutex
	msgs []kafkago.Message
	err  error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func decode(t *testing.T, msg kafkago.Message) kafka.Event {
	t.Helper()
	var e kafka.Event
	require.NoError(t, json.Unmarshal(msg.Value, &e))
	return e
}

func newOrder(t *testing.T) *order.Order {
	t.Helper()
	client, err := user.NewUser(kernel.NewUUID(), "carol", user.Client, kernel.Female)
	require.NoError(t, err)
	o, err := order.NewOrder(kernel.NewUUID(), client, "Cleaning", "", 900, now)
	require.NoError(t, err)
	return o
}

func TestOrderEventPublisher(t *testing.T) {
	clock := func() time.Time { return now }

	t.Run("should key events by order id", func(t *testing.T) {
		w := &recordingWriter{}
		p := kafka.NewOrderEventPublisherWithWriter(w, clock)
		o := newOrder(t)

		require.NoError(t, p.OrderCreated(t.Context(), o))

		require.Len(t, w.msgs, 1)
		assert.Equal(t, o.ID().String(), string(w.msgs[0].Key))
		e := decode(t, w.msgs[0])
		assert.Equal(t, kafka.EventOrderCreated, e.Type)
		assert.Equal(t, o.ID().String(), e.OrderID)
		assert.NotEmpty(t, e.EventID)
		assert.True(t, now.Equal(e.CreatedAt))
		assert.Equal(t, "pending", e.Payload["status"])
		assert.Equal(t, "Cleaning", e.Payload["service_name"])
		assert.InDelta(t, 900, e.Payload["price"], 0)
	})

	t.Run("should carry the previous status and cancel reason", func(t *testing.T) {
		w := &recordingWriter{}
		p := kafka.NewOrderEventPublisherWithWriter(w, clock)
		o := newOrder(t)
		require.True(t, o.Cancel("changed my mind", now))

		require.NoError(t, p.OrderUpdated(t.Context(), o, order.Pending))

		e := decode(t, w.msgs[0])
		assert.Equal(t, kafka.EventOrderUpdated, e.Type)
		assert.Equal(t, "pending", e.Payload["old_status"])
		assert.Equal(t, "canceled", e.Payload["status"])
		assert.Equal(t, "changed my mind", e.Payload["cancel_reason"])
	})

	t.Run("should publish payment outcomes and assignments", func(t *testing.T) {
		w := &recordingWriter{}
		p := kafka.NewOrderEventPublisherWithWriter(w, clock)
		o := newOrder(t)
		worker, err := user.NewUser(kernel.NewUUID(), "wendy", user.Worker, kernel.Female)
		require.NoError(t, err)
		_, err = o.Transition(order.Paid, order.Changes{}, now)
		require.NoError(t, err)
		require.True(t, o.AssignWorker(worker, now))

		require.NoError(t, p.PaymentProcessed(t.Context(), o, true))
		require.NoError(t, p.WorkerAssigned(t.Context(), o))

		require.Len(t, w.msgs, 2)
		assert.Equal(t, true, decode(t, w.msgs[0]).Payload["success"])
		assigned := decode(t, w.msgs[1])
		assert.Equal(t, kafka.EventWorkerAssigned, assigned.Type)
		assert.Equal(t, worker.ID().String(), assigned.Payload["worker_id"])
	})

	t.Run("should return writer failures", func(t *testing.T) {
		p := kafka.NewOrderEventPublisherWithWriter(&recordingWriter{err: errors.New("leader not available")}, clock)

		err := p.OrderCreated(t.Context(), newOrder(t))

		require.EqualError(t, err, "leader not available")
	})

	t.Run("should refuse unconstructed orders", func(t *testing.T) {
		w := &recordingWriter{}
		p := kafka.NewOrderEventPublisherWithWriter(w, clock)

		require.ErrorIs(t, p.WorkerAssigned(t.Context(), &order.Order{}), order.ErrOrderIsNotConstructed)
		assert.Empty(t, w.msgs)
	})
}

func TestNewOrderEventPublisher(t *testing.T) {
	t.Run("should be disabled without brokers", func(t *testing.T) {
		_, err := kafka.NewOrderEventPublisher(kafka.ParseBrokers(" , "), "orders")

		require.ErrorIs(t, err, kafka.ErrDisabled)
	})

	t.Run("should require a topic", func(t *testing.T) {
		_, err := kafka.NewOrderEventPublisher([]string{"localhost:9092"}, "")

		require.Error(t, err)
	})

	t.Run("should parse broker lists", func(t *testing.T) {
		assert.Equal(t, []string{"a:9092", "b:9092"}, kafka.ParseBrokers("a:9092, b:9092,"))
	})
}
