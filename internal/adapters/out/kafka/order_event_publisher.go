// Package kafka publishes committed order changes to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/order"

	"github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated     = "order_created"
	EventOrderUpdated     = "order_updated"
	EventPaymentProcessed = "payment_processed"
	EventWorkerAssigned   = "worker_assigned"
)

const writeTimeout = 5 * time.Second

var ErrDisabled = errors.New("kafka disabled")

// Event is the message body written for every order change. The message key is the order id,
// so all events of one order land on the same partition in commit order.
type Event struct {
	EventID   string         `json:"event_id"`
	OrderID   string         `json:"order_id"`
	Type      string         `json:"type"`
	CreatedAt time.Time      `json:"created_at"`
	Payload   map[string]any `json:"payload"`
}

// MessageWriter is the part of *kafka.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type OrderEventPublisher struct {
	writer MessageWriter
	now    func() time.Time
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// NewOrderEventPublisher returns ErrDisabled when no broker is configured.
func NewOrderEventPublisher(brokers []string, topic string) (*OrderEventPublisher, error) {
	if len(brokers) == 0 {
		return nil, ErrDisabled
	}
	if strings.TrimSpace(topic) == "" {
		return nil, errors.New("kafka topic is required")
	}

	return NewOrderEventPublisherWithWriter(newWriter(brokers, topic), nil), nil
}

// newWriter flushes every message as soon as it is written. Publishing runs while the order's
// lock is held, so it must not wait for a batch to fill.
func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    1,
		BatchTimeout: time.Millisecond,
		WriteTimeout: writeTimeout,
	}
}

func NewOrderEventPublisherWithWriter(writer MessageWriter, clock func() time.Time) *OrderEventPublisher {
	if clock == nil {
		clock = time.Now
	}
	return &OrderEventPublisher{writer: writer, now: clock}
}

func (p *OrderEventPublisher) OrderCreated(ctx context.Context, o *order.Order) error {
	payload := basePayload(o)
	payload["service_name"] = o.ServiceName()
	payload["price"] = o.Price()
	return p.publish(ctx, EventOrderCreated, o, payload)
}

func (p *OrderEventPublisher) OrderUpdated(ctx context.Context, o *order.Order, oldStatus order.Status) error {
	payload := basePayload(o)
	payload["old_status"] = oldStatus.String()
	if o.Status() == order.Canceled {
		payload["cancel_reason"] = o.CancelReason()
	}
	return p.publish(ctx, EventOrderUpdated, o, payload)
}

func (p *OrderEventPublisher) PaymentProcessed(ctx context.Context, o *order.Order, success bool) error {
	payload := basePayload(o)
	payload["success"] = success
	return p.publish(ctx, EventPaymentProcessed, o, payload)
}

func (p *OrderEventPublisher) WorkerAssigned(ctx context.Context, o *order.Order) error {
	return p.publish(ctx, EventWorkerAssigned, o, basePayload(o))
}

func (p *OrderEventPublisher) Close() error {
	return p.writer.Close()
}

func (p *OrderEventPublisher) publish(ctx context.Context, typ string, o *order.Order, payload map[string]any) error {
	if err := o.Validate(); err != nil {
		return err
	}

	now := p.now().UTC()
	data, err := json.Marshal(Event{
		EventID:   kernel.NewUUID().String(),
		OrderID:   o.ID().String(),
		Type:      typ,
		CreatedAt: now,
		Payload:   payload,
	})
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(o.ID().String()),
		Value: data,
		Time:  now,
	})
}

func basePayload(o *order.Order) map[string]any {
	payload := map[string]any{
		"status":    o.Status().String(),
		"client_id": o.ClientID().String(),
		"version":   o.Version(),
	}
	if id := o.WorkerID(); id != nil {
		payload["worker_id"] = id.String()
	}
	return payload
}
