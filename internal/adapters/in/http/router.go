package http

import (
	"context"
	"errors"
	"net/http"

	"workorders/internal/core/ports"
	"workorders/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RouterOptions wires the collaborators of the router. A nil Socket leaves the /ws routes out,
// a nil Gatherer leaves out /metrics.
type RouterOptions struct {
	Verifier ports.TokenVerifier
	Socket   http.Handler
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the echo instance serving the API, the socket, health, metrics and the API docs.
func NewRouter(ctx context.Context, s *Server, opts RouterOptions) (*echo.Echo, error) {
	if s == nil {
		return nil, errors.New("server is required")
	}
	if opts.Verifier == nil {
		return nil, errors.New("token verifier is required")
	}

	doc, err := LoadOpenAPI(ctx)
	if err != nil {
		return nil, err
	}
	validator, err := requestValidator(doc)
	if err != nil {
		return nil, err
	}
	registerSwaggerDoc()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		if werr := errorHandler(c, err); werr != nil {
			e.Logger.Error(werr)
		}
	}

	e.Use(middleware.Recover())
	e.Use(observe(opts.Metrics))

	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})
	if opts.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(metrics.Handler(opts.Gatherer)))
	}
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	if opts.Socket != nil {
		socket := echo.WrapHandler(opts.Socket)
		e.GET("/ws", socket)
		e.GET("/ws/orders", socket)
		e.GET("/ws/notifications", socket)
	}

	api := e.Group("/api/v1", authenticate(opts.Verifier), validator)

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders", s.ListOrders)
	api.GET("/orders/:orderId", s.GetOrder)
	api.PATCH("/orders/:orderId/status", s.ChangeOrderStatus)
	api.POST("/orders/:orderId/assign", s.AssignWorker)
	api.POST("/orders/:orderId/start", s.StartWork)
	api.POST("/orders/:orderId/complete", s.CompleteOrder)
	api.POST("/orders/:orderId/cancel", s.CancelOrder)
	api.POST("/orders/:orderId/payment", s.ProcessPayment)
	api.POST("/orders/:orderId/refund", s.RefundPayment)

	api.POST("/notifications/:notificationId/read", s.MarkNotificationRead)
	api.POST("/notifications/:notificationId/resend", s.ResendNotification)

	return e, nil
}
