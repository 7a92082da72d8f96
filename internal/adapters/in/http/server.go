package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"workorders/internal/core/application/usecases/commands"
	"workorders/internal/core/application/usecases/queries"
	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/notification"
	"workorders/internal/core/domain/model/order"
	"workorders/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/oapi-codegen/runtime"
)

// Handler is implemented by every command and query handler the server dispatches to.
type Handler[In, Out any] interface {
	Handle(ctx context.Context, in In) (Out, error)
}

type Handlers struct {
	CreateOrder          Handler[commands.CreateOrderCommand, *order.Order]
	ChangeOrderStatus    Handler[commands.ChangeOrderStatusCommand, commands.Result]
	AssignWorker         Handler[commands.AssignWorkerCommand, commands.Result]
	StartWork            Handler[commands.StartWorkCommand, commands.Result]
	CompleteOrder        Handler[commands.CompleteOrderCommand, commands.Result]
	CancelOrder          Handler[commands.CancelOrderCommand, commands.Result]
	ProcessPayment       Handler[commands.ProcessPaymentCommand, commands.Result]
	RefundPayment        Handler[commands.RefundPaymentCommand, commands.Result]
	MarkNotificationRead Handler[commands.MarkNotificationReadCommand, bool]
	ResendNotification   Handler[commands.ResendNotificationCommand, *notification.Notification]
	GetOrder             Handler[queries.GetOrderQuery, queries.OrderResponse]
	GetUserOrders        Handler[queries.GetUserOrdersQuery, []queries.OrderResponse]
}

func (h Handlers) validate() error {
	if h.CreateOrder == nil || h.ChangeOrderStatus == nil || h.AssignWorker == nil ||
		h.StartWork == nil || h.CompleteOrder == nil || h.CancelOrder == nil ||
		h.ProcessPayment == nil || h.RefundPayment == nil {
		return errors.New("order command handlers are required")
	}
	if h.MarkNotificationRead == nil || h.ResendNotification == nil {
		return errors.New("notification command handlers are required")
	}
	if h.GetOrder == nil || h.GetUserOrders == nil {
		return errors.New("order query handlers are required")
	}
	return nil
}

type Server struct {
	handlers Handlers
	logger   *slog.Logger
}

func NewServer(handlers Handlers, logger *slog.Logger) (*Server, error) {
	if err := handlers.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		handlers: handlers,
		logger:   logger.With("component", "http"),
	}, nil
}

type (
	newOrderRequest struct {
		ServiceName string `json:"service_name"`
		Description string `json:"description"`
		Price       int    `json:"price"`
	}

	statusChangeRequest struct {
		Status          string       `json:"status"`
		WorkerID        *kernel.UUID `json:"worker_id"`
		Reason          string       `json:"reason"`
		ExpectedVersion *int64       `json:"expected_version"`
		ServiceName     *string      `json:"service_name"`
		Description     *string      `json:"description"`
		Price           *int         `json:"price"`
	}

	assignWorkerRequest struct {
		WorkerID kernel.UUID `json:"worker_id"`
	}

	reasonRequest struct {
		Reason string `json:"reason"`
	}

	paymentRequest struct {
		Success bool `json:"success"`
	}

	orderResult struct {
		Order   queries.OrderResponse `json:"order"`
		Changed bool                  `json:"changed"`
	}

	readReceipt struct {
		NotificationID kernel.UUID `json:"notification_id"`
		Status         string      `json:"status"`
		Changed        bool        `json:"changed"`
	}

	notificationResponse struct {
		ID          kernel.UUID `json:"id"`
		Type        string      `json:"type"`
		Title       string      `json:"title"`
		Message     string      `json:"message,omitempty"`
		RecipientID kernel.UUID `json:"recipient_id"`
		Status      string      `json:"status"`
		Priority    int         `json:"priority"`
		CreatedAt   time.Time   `json:"created_at"`
		SentAt      *time.Time  `json:"sent_at,omitempty"`
		ReadAt      *time.Time  `json:"read_at,omitempty"`
	}
)

func newOrderResult(r commands.Result) orderResult {
	return orderResult{Order: queries.NewOrderResponse(r.Order), Changed: r.Changed}
}

func newNotificationResponse(n *notification.Notification) notificationResponse {
	return notificationResponse{
		ID:          n.ID(),
		Type:        n.Type().String(),
		Title:       n.Title(),
		Message:     n.Message(),
		RecipientID: n.RecipientID(),
		Status:      n.Status().String(),
		Priority:    int(n.Priority()),
		CreatedAt:   n.CreatedAt(),
		SentAt:      n.SentAt(),
		ReadAt:      n.ReadAt(),
	}
}

func (s *Server) CreateOrder(c echo.Context) error {
	var req newOrderRequest
	if err := bind(c, &req); err != nil {
		return writeError(c, err)
	}

	command, err := commands.NewCreateOrderCommand(actorFrom(c), kernel.NewUUID(), req.ServiceName, req.Description, req.Price)
	if err != nil {
		return writeError(c, err)
	}

	o, err := s.handlers.CreateOrder.Handle(c.Request().Context(), command)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusCreated, queries.NewOrderResponse(o))
}

func (s *Server) ListOrders(c echo.Context) error {
	var (
		names []string
		limit int
	)
	if err := runtime.BindQueryParameter("form", false, false, "status", c.QueryParams(), &names); err != nil {
		return writeError(c, errs.NewValueIsInvalidErrorWithCause("status", err))
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", c.QueryParams(), &limit); err != nil {
		return writeError(c, errs.NewValueIsInvalidErrorWithCause("limit", err))
	}

	statuses := make([]order.Status, 0, len(names))
	for _, name := range names {
		status, err := order.ParseStatus(name)
		if err != nil {
			return writeError(c, err)
		}
		statuses = append(statuses, status)
	}

	query, err := queries.NewGetUserOrdersQuery(actorFrom(c), statuses, limit)
	if err != nil {
		return writeError(c, err)
	}

	orders, err := s.handlers.GetUserOrders.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	if orders == nil {
		orders = []queries.OrderResponse{}
	}
	return c.JSON(http.StatusOK, orders)
}

func (s *Server) GetOrder(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return writeError(c, err)
	}

	query, err := queries.NewGetOrderQuery(actorFrom(c), orderID)
	if err != nil {
		return writeError(c, err)
	}

	response, err := s.handlers.GetOrder.Handle(c.Request().Context(), query)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, response)
}

func (s *Server) ChangeOrderStatus(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return writeError(c, err)
	}

	var req statusChangeRequest
	if err = bind(c, &req); err != nil {
		return writeError(c, err)
	}

	change := commands.StatusChange{
		WorkerID:        req.WorkerID,
		Reason:          req.Reason,
		ExpectedVersion: req.ExpectedVersion,
		Changes: order.Changes{
			ServiceName: req.ServiceName,
			Description: req.Description,
			Price:       req.Price,
		},
	}
	if req.Status != "" {
		if change.Status, err = order.ParseStatus(req.Status); err != nil {
			return writeError(c, err)
		}
	}

	command, err := commands.NewChangeOrderStatusCommand(actorFrom(c), orderID, change)
	if err != nil {
		return writeError(c, err)
	}
	return s.respond(c, func(ctx context.Context) (commands.Result, error) {
		return s.handlers.ChangeOrderStatus.Handle(ctx, command)
	})
}

func (s *Server) AssignWorker(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return writeError(c, err)
	}

	var req assignWorkerRequest
	if err = bind(c, &req); err != nil {
		return writeError(c, err)
	}

	command, err := commands.NewAssignWorkerCommand(actorFrom(c), orderID, req.WorkerID)
	if err != nil {
		return writeError(c, err)
	}
	return s.respond(c, func(ctx context.Context) (commands.Result, error) {
		return s.handlers.AssignWorker.Handle(ctx, command)
	})
}

func (s *Server) StartWork(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return writeError(c, err)
	}

	command, err := commands.NewStartWorkCommand(actorFrom(c), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return s.respond(c, func(ctx context.Context) (commands.Result, error) {
		return s.handlers.StartWork.Handle(ctx, command)
	})
}

func (s *Server) CompleteOrder(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return writeError(c, err)
	}

	command, err := commands.NewCompleteOrderCommand(actorFrom(c), orderID)
	if err != nil {
		return writeError(c, err)
	}
	return s.respond(c, func(ctx context.Context) (commands.Result, error) {
		return s.handlers.CompleteOrder.Handle(ctx, command)
	})
}

func (s *Server) CancelOrder(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return writeError(c, err)
	}

	var req reasonRequest
	if err = bind(c, &req); err != nil {
		return writeError(c, err)
	}

	command, err := commands.NewCancelOrderCommand(actorFrom(c), orderID, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return s.respond(c, func(ctx context.Context) (commands.Result, error) {
		return s.handlers.CancelOrder.Handle(ctx, command)
	})
}

func (s *Server) ProcessPayment(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return writeError(c, err)
	}

	var req paymentRequest
	if err = bind(c, &req); err != nil {
		return writeError(c, err)
	}

	command, err := commands.NewProcessPaymentCommand(actorFrom(c), orderID, req.Success)
	if err != nil {
		return writeError(c, err)
	}
	return s.respond(c, func(ctx context.Context) (commands.Result, error) {
		return s.handlers.ProcessPayment.Handle(ctx, command)
	})
}

func (s *Server) RefundPayment(c echo.Context) error {
	orderID, err := pathUUID(c, "orderId")
	if err != nil {
		return writeError(c, err)
	}

	var req reasonRequest
	if err = bind(c, &req); err != nil {
		return writeError(c, err)
	}

	command, err := commands.NewRefundPaymentCommand(actorFrom(c), orderID, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return s.respond(c, func(ctx context.Context) (commands.Result, error) {
		return s.handlers.RefundPayment.Handle(ctx, command)
	})
}

func (s *Server) MarkNotificationRead(c echo.Context) error {
	notificationID, err := pathUUID(c, "notificationId")
	if err != nil {
		return writeError(c, err)
	}

	command, err := commands.NewMarkNotificationReadCommand(actorFrom(c), notificationID)
	if err != nil {
		return writeError(c, err)
	}

	changed, err := s.handlers.MarkNotificationRead.Handle(c.Request().Context(), command)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, readReceipt{
		NotificationID: notificationID,
		Status:         notification.Read.String(),
		Changed:        changed,
	})
}

func (s *Server) ResendNotification(c echo.Context) error {
	notificationID, err := pathUUID(c, "notificationId")
	if err != nil {
		return writeError(c, err)
	}

	command, err := commands.NewResendNotificationCommand(actorFrom(c), notificationID)
	if err != nil {
		return writeError(c, err)
	}

	n, err := s.handlers.ResendNotification.Handle(c.Request().Context(), command)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, newNotificationResponse(n))
}

func (s *Server) respond(c echo.Context, handle func(ctx context.Context) (commands.Result, error)) error {
	result, err := handle(c.Request().Context())
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, newOrderResult(result))
}

func (s *Server) fail(c echo.Context, err error) error {
	if errs.Code(err) == errs.CodeStorageFailure {
		s.logger.ErrorContext(c.Request().Context(), "request failed",
			"method", c.Request().Method,
			"path", c.Path(),
			"error", err,
		)
	}
	return writeError(c, err)
}

func bind(c echo.Context, dest any) error {
	if err := c.Bind(dest); err != nil {
		return errs.NewValueIsInvalidErrorWithCause("request body", err)
	}
	return nil
}

func pathUUID(c echo.Context, name string) (kernel.UUID, error) {
	var raw uuid.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, c.Param(name), &raw, runtime.BindStyledParameterOptions{
		ParamLocation: runtime.ParamLocationPath,
		Explode:       false,
		Required:      true,
	})
	if err != nil {
		return kernel.UUID{}, errs.NewValueIsInvalidErrorWithCause(name, err)
	}
	return kernel.UUIDFromRaw(raw)
}
