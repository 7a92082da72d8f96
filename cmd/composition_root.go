package cmd

import (
	"context"
	"errors"
	"log/slog"
	"time"

	httpin "workorders/internal/adapters/in/http"
	"workorders/internal/adapters/in/ws"
	"workorders/internal/adapters/out/auth"
	"workorders/internal/adapters/out/kafka"
	"workorders/internal/adapters/out/postgres"
	"workorders/internal/adapters/out/postgres/notificationrepo"
	"workorders/internal/adapters/out/postgres/userrepo"
	"workorders/internal/core/application/fanout"
	"workorders/internal/core/application/usecases/commands"
	"workorders/internal/core/application/usecases/queries"
	"workorders/internal/core/domain/services"
	"workorders/internal/core/ports"
	"workorders/internal/jobs"
	"workorders/internal/pkg/keyedmutex"
	"workorders/internal/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"
)

// CompositionRoot owns the long-lived collaborators and builds handlers from them.
type CompositionRoot struct {
	config Config
	gormDB *gorm.DB
	logger *slog.Logger

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	connections *fanout.ConnectionRegistry
	dispatcher  *fanout.FanoutDispatcher
	publisher   *kafka.OrderEventPublisher
	store       ports.NotificationStore
	users       ports.UserRepository

	writer  commands.OrderWriter
	machine services.OrderStateMachine
}

func NewCompositionRoot(config Config, gormDB *gorm.DB, logger *slog.Logger) (*CompositionRoot, error) {
	if gormDB == nil {
		return nil, errors.New("database is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	store := notificationrepo.NewGormNotificationStore(gormDB)
	users := userrepo.NewGormUserRepository(gormDB)
	connections := fanout.NewConnectionRegistry(m)

	dispatcher, err := fanout.NewFanoutDispatcher(connections, store, users, logger, m, fanout.Options{
		SendTimeout: config.WSSendTimeout,
	})
	if err != nil {
		return nil, err
	}

	notifiers := fanout.MultiNotifier{dispatcher}
	publisher, err := kafka.NewOrderEventPublisher(kafka.ParseBrokers(config.KafkaHost), config.KafkaOrderChangedTopic)
	switch {
	case errors.Is(err, kafka.ErrDisabled):
		logger.Info("Kafka publishing disabled, KAFKA_HOST is not set")
	case err != nil:
		return nil, err
	default:
		notifiers = append(notifiers, publisher)
	}

	uowFactory := postgres.NewGormUnitOfWorkFactory(gormDB)
	var f commands.OrderUoWFactory = FuncOrderUoWFactory(func() commands.OrderUoW {
		return uowFactory.Create()
	})
	writer, err := commands.NewOrderWriter(f, keyedmutex.New(), notifiers, m, logger)
	if err != nil {
		return nil, err
	}

	return &CompositionRoot{
		config:      config,
		gormDB:      gormDB,
		logger:      logger,
		registry:    registry,
		metrics:     m,
		connections: connections,
		dispatcher:  dispatcher,
		publisher:   publisher,
		store:       store,
		users:       users,
		writer:      writer,
		machine:     services.NewOrderStateMachine(time.Now),
	}, nil
}

func (c *CompositionRoot) CreateCreateOrderCommandHandler() commands.CreateOrderCommandHandler {
	return commands.NewCreateOrderCommandHandler(c.writer, time.Now)
}

func (c *CompositionRoot) CreateChangeOrderStatusCommandHandler() commands.ChangeOrderStatusCommandHandler {
	return commands.NewChangeOrderStatusCommandHandler(c.writer, c.machine)
}

func (c *CompositionRoot) CreateAssignWorkerCommandHandler() commands.AssignWorkerCommandHandler {
	return commands.NewAssignWorkerCommandHandler(c.writer, c.machine)
}

func (c *CompositionRoot) CreateStartWorkCommandHandler() commands.StartWorkCommandHandler {
	return commands.NewStartWorkCommandHandler(c.writer, c.machine)
}

func (c *CompositionRoot) CreateCompleteOrderCommandHandler() commands.CompleteOrderCommandHandler {
	return commands.NewCompleteOrderCommandHandler(c.writer, c.machine)
}

func (c *CompositionRoot) CreateCancelOrderCommandHandler() commands.CancelOrderCommandHandler {
	return commands.NewCancelOrderCommandHandler(c.writer, c.machine)
}

func (c *CompositionRoot) CreateProcessPaymentCommandHandler() commands.ProcessPaymentCommandHandler {
	return commands.NewProcessPaymentCommandHandler(c.writer, c.machine)
}

func (c *CompositionRoot) CreateRefundPaymentCommandHandler() commands.RefundPaymentCommandHandler {
	return commands.NewRefundPaymentCommandHandler(c.writer, c.machine)
}

func (c *CompositionRoot) CreateMarkNotificationReadCommandHandler() (commands.MarkNotificationReadCommandHandler, error) {
	return commands.NewMarkNotificationReadCommandHandler(c.store)
}

func (c *CompositionRoot) CreateResendNotificationCommandHandler() (commands.ResendNotificationCommandHandler, error) {
	return commands.NewResendNotificationCommandHandler(c.store, c.dispatcher, c.logger)
}

func (c *CompositionRoot) CreateGetOrderQueryHandler() queries.GetOrderQueryHandler {
	return queries.NewGetOrderQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateGetUserOrdersQueryHandler() queries.GetUserOrdersQueryHandler {
	return queries.NewGetUserOrdersQueryHandler(c.gormDB)
}

func (c *CompositionRoot) CreateTokenVerifier() (*auth.JWTVerifier, error) {
	return auth.NewJWTVerifier(c.config.JWTSecret, c.users)
}

func (c *CompositionRoot) CreateSocketHandler() (*ws.Handler, error) {
	verifier, err := c.CreateTokenVerifier()
	if err != nil {
		return nil, err
	}
	marker, err := c.CreateMarkNotificationReadCommandHandler()
	if err != nil {
		return nil, err
	}

	return ws.NewHandler(
		c.connections,
		verifier,
		c.CreateGetOrderQueryHandler(),
		c.CreateGetUserOrdersQueryHandler(),
		marker,
		c.logger,
		ws.Options{
			SendBuffer:   c.config.WSSendBuffer,
			WriteTimeout: c.config.WSSendTimeout,
			InboundRate:  c.config.WSInboundRate,
		},
	)
}

// CreateRouter builds the HTTP surface. A non-nil socket is mounted under /ws.
func (c *CompositionRoot) CreateRouter(ctx context.Context, socket *ws.Handler) (*echo.Echo, error) {
	verifier, err := c.CreateTokenVerifier()
	if err != nil {
		return nil, err
	}
	marker, err := c.CreateMarkNotificationReadCommandHandler()
	if err != nil {
		return nil, err
	}
	resend, err := c.CreateResendNotificationCommandHandler()
	if err != nil {
		return nil, err
	}

	server, err := httpin.NewServer(httpin.Handlers{
		CreateOrder:          c.CreateCreateOrderCommandHandler(),
		ChangeOrderStatus:    c.CreateChangeOrderStatusCommandHandler(),
		AssignWorker:         c.CreateAssignWorkerCommandHandler(),
		StartWork:            c.CreateStartWorkCommandHandler(),
		CompleteOrder:        c.CreateCompleteOrderCommandHandler(),
		CancelOrder:          c.CreateCancelOrderCommandHandler(),
		ProcessPayment:       c.CreateProcessPaymentCommandHandler(),
		RefundPayment:        c.CreateRefundPaymentCommandHandler(),
		MarkNotificationRead: marker,
		ResendNotification:   resend,
		GetOrder:             c.CreateGetOrderQueryHandler(),
		GetUserOrders:        c.CreateGetUserOrdersQueryHandler(),
	}, c.logger)
	if err != nil {
		return nil, err
	}

	opts := httpin.RouterOptions{
		Verifier: verifier,
		Metrics:  c.metrics,
		Gatherer: c.registry,
	}
	if socket != nil {
		opts.Socket = socket
	}
	return httpin.NewRouter(ctx, server, opts)
}

func (c *CompositionRoot) CreateJobManager() (*jobs.JobManager, error) {
	redelivery, err := jobs.NewNotificationRedeliveryJob(c.store, c.dispatcher, c.metrics, c.logger, jobs.RedeliveryOptions{
		Schedule:      c.config.NotificationRedeliverySchedule,
		MaxPendingAge: c.config.NotificationMaxPendingAge,
	})
	if err != nil {
		return nil, err
	}
	return jobs.NewJobManager(redelivery), nil
}

// Close releases the Kafka writer when publishing is enabled.
func (c *CompositionRoot) Close() error {
	if c.publisher == nil {
		return nil
	}
	return c.publisher.Close()
}

type FuncOrderUoWFactory func() commands.OrderUoW

func (f FuncOrderUoWFactory) Create() commands.OrderUoW {
	return f()
}
