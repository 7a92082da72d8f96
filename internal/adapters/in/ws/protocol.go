package ws

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"workorders/internal/core/application/usecases/commands"
	"workorders/internal/core/application/usecases/queries"
	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/pkg/errs"
)

// inbound is a client request: {"type": "...", ...fields of that type}.
type inbound struct {
	Type           *string `json:"type"`
	GroupName      string  `json:"group_name"`
	OrderID        string  `json:"order_id"`
	NotificationID string  `json:"notification_id"`
}

type historyItem struct {
	ID          kernel.UUID `json:"id"`
	ServiceName string      `json:"service_name"`
	Status      string      `json:"status"`
	Price       int         `json:"price"`
	CreatedAt   string      `json:"created_at"`
}

func (s *session) handle(ctx context.Context, data []byte) {
	if !json.Valid(data) {
		s.fail(ctx, "Invalid JSON format", nil)
		return
	}

	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil || msg.Type == nil || strings.TrimSpace(*msg.Type) == "" {
		s.fail(ctx, "Invalid message structure", nil)
		return
	}

	switch *msg.Type {
	case "ping":
		s.reply(ctx, "pong", map[string]any{"timestamp": s.now()})
	case "subscribe":
		s.subscribe(ctx, msg.GroupName)
	case "unsubscribe":
		s.unsubscribe(ctx, msg.GroupName)
	case "order_status_request":
		s.orderStatus(ctx, msg.OrderID)
	case "order_history_request":
		s.orderHistory(ctx)
	case "mark_read":
		s.markRead(ctx, msg.NotificationID)
	default:
		s.fail(ctx, "Unknown message type: "+*msg.Type, nil)
	}
}

func (s *session) subscribe(ctx context.Context, group string) {
	if group == "" {
		s.fail(ctx, "Invalid group name", errs.NewValueIsRequiredError("group_name"))
		return
	}
	if err := s.handler.registry.Subscribe(s.channel.ID(), group); err != nil {
		s.fail(ctx, "Invalid group name", err)
		return
	}
	s.reply(ctx, "subscribed", map[string]any{
		"group_name": group,
		"message":    "Successfully subscribed to group",
	})
}

func (s *session) unsubscribe(ctx context.Context, group string) {
	if group == "" {
		s.fail(ctx, "Invalid group name", errs.NewValueIsRequiredError("group_name"))
		return
	}
	if err := s.handler.registry.Unsubscribe(s.channel.ID(), group); err != nil {
		s.fail(ctx, "Unsubscription failed", err)
		return
	}
	s.reply(ctx, "unsubscribed", map[string]any{
		"group_name": group,
		"message":    "Successfully unsubscribed from group",
	})
}

func (s *session) orderStatus(ctx context.Context, rawID string) {
	if rawID == "" {
		s.fail(ctx, "Order ID is required", errs.NewValueIsRequiredError("order_id"))
		return
	}
	id, err := kernel.UUIDFromString(rawID)
	if err != nil {
		s.fail(ctx, "Invalid order ID", err)
		return
	}

	query, err := queries.NewGetOrderQuery(s.identity, id)
	if err != nil {
		s.fail(ctx, "Invalid order ID", err)
		return
	}

	o, err := s.handler.orders.Handle(ctx, query)
	switch {
	case errors.Is(err, errs.ErrObjectNotFound), errors.Is(err, errs.ErrPermissionDenied):
		s.fail(ctx, "Order not found", err)
		return
	case err != nil:
		s.fail(ctx, "Failed to get order status", err)
		return
	}

	s.reply(ctx, "order_status_response", map[string]any{
		"order_id":   o.ID.String(),
		"status":     o.Status.String(),
		"created_at": o.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": o.UpdatedAt.Format(time.RFC3339Nano),
	})
}

func (s *session) orderHistory(ctx context.Context) {
	query, err := queries.NewGetUserOrdersQuery(s.identity, nil, queries.DefaultOrdersLimit)
	if err != nil {
		s.fail(ctx, "Failed to get order history", err)
		return
	}

	orders, err := s.handler.history.Handle(ctx, query)
	if err != nil {
		s.fail(ctx, "Failed to get order history", err)
		return
	}

	items := make([]historyItem, 0, len(orders))
	for _, o := range orders {
		items = append(items, historyItem{
			ID:          o.ID,
			ServiceName: o.ServiceName,
			Status:      o.Status.String(),
			Price:       o.Price,
			CreatedAt:   o.CreatedAt.Format(time.RFC3339Nano),
		})
	}
	s.reply(ctx, "order_history_response", map[string]any{"orders": items})
}

func (s *session) markRead(ctx context.Context, rawID string) {
	if rawID == "" {
		s.fail(ctx, "Notification ID is required", errs.NewValueIsRequiredError("notification_id"))
		return
	}
	id, err := kernel.UUIDFromString(rawID)
	if err != nil {
		s.fail(ctx, "Failed to mark notification as read", err)
		return
	}

	command, err := commands.NewMarkNotificationReadCommand(s.identity, id)
	if err != nil {
		s.fail(ctx, "Failed to mark notification as read", err)
		return
	}
	if _, err = s.handler.notifications.Handle(ctx, command); err != nil {
		s.fail(ctx, "Failed to mark notification as read", err)
		return
	}

	s.reply(ctx, "mark_read_response", map[string]any{
		"notification_id": id.String(),
		"status":          "read",
		"message":         "Notification marked as read",
	})
}

// fail sends an error envelope. cause, when given, adds its errs.Code.
func (s *session) fail(ctx context.Context, message string, cause error) {
	payload := map[string]any{
		"error":     message,
		"timestamp": s.now(),
	}
	if cause != nil {
		payload["code"] = errs.Code(cause)
	}
	s.reply(ctx, "error", payload)
}

func (s *session) now() string {
	return s.handler.opts.Clock().UTC().Format(time.RFC3339Nano)
}
