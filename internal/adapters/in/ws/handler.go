// Package ws serves the notification socket. A connection authenticates during the handshake,
// is registered under the groups derived from its identity and then receives every envelope
// fanned out to those groups. Clients may also send the small request protocol handled in
// protocol.go.
package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"workorders/internal/adapters/out/auth"
	"workorders/internal/core/application/fanout"
	"workorders/internal/core/application/usecases/commands"
	"workorders/internal/core/application/usecases/queries"
	"workorders/internal/core/domain/model/notification"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/core/ports"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	// CloseUnauthenticated is the close code sent when the handshake token is rejected.
	CloseUnauthenticated = 4001

	maxMessageSize = 64 << 10
)

type (
	OrderReader interface {
		Handle(ctx context.Context, query queries.GetOrderQuery) (queries.OrderResponse, error)
	}

	OrderLister interface {
		Handle(ctx context.Context, query queries.GetUserOrdersQuery) ([]queries.OrderResponse, error)
	}

	NotificationMarker interface {
		Handle(ctx context.Context, command commands.MarkNotificationReadCommand) (bool, error)
	}
)

type Options struct {
	SendBuffer   int
	WriteTimeout time.Duration
	PongWait     time.Duration
	InboundRate  float64
	InboundBurst int
	Clock        func() time.Time
}

func (o Options) withDefaults() Options {
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = 5 * time.Second
	}
	if o.PongWait <= 0 {
		o.PongWait = 60 * time.Second
	}
	if o.InboundRate <= 0 {
		o.InboundRate = 10
	}
	if o.InboundBurst <= 0 {
		o.InboundBurst = max(1, int(o.InboundRate))
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

type Handler struct {
	registry      *fanout.ConnectionRegistry
	verifier      ports.TokenVerifier
	orders        OrderReader
	history       OrderLister
	notifications NotificationMarker
	upgrader      websocket.Upgrader
	logger        *slog.Logger
	opts          Options

	wg sync.WaitGroup
}

func NewHandler(
	registry *fanout.ConnectionRegistry,
	verifier ports.TokenVerifier,
	orders OrderReader,
	history OrderLister,
	notifications NotificationMarker,
	logger *slog.Logger,
	opts Options,
) (*Handler, error) {
	if registry == nil {
		return nil, errors.New("connection registry is required")
	}
	if verifier == nil {
		return nil, errors.New("token verifier is required")
	}
	if orders == nil || history == nil || notifications == nil {
		return nil, errors.New("order and notification handlers are required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		registry:      registry,
		verifier:      verifier,
		orders:        orders,
		history:       history,
		notifications: notifications,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger.With("component", "ws"),
		opts:   opts.withDefaults(),
	}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	identity, err := h.verifier.VerifyToken(ctx, tokenFrom(r))
	if err != nil {
		h.logger.WarnContext(ctx, "unauthenticated websocket handshake",
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		_ = conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(CloseUnauthenticated, "unauthenticated"),
			time.Now().Add(h.opts.WriteTimeout),
		)
		_ = conn.Close()
		return
	}

	ch := newChannel(conn, identity.ID(), h.opts)
	s := &session{handler: h, channel: ch, identity: identity}

	// The confirmation is queued before registration so it precedes any fanned out envelope.
	groups := fanout.GroupsFor(identity)
	s.reply(ctx, "connection_confirmed", map[string]any{
		"user_id":  identity.ID().String(),
		"username": identity.Username(),
		"role":     identity.Role().String(),
		"groups":   groups,
		"message":  "WebSocket connection established",
	})

	if _, err = h.registry.Register(ch, identity); err != nil {
		h.logger.WarnContext(ctx, "websocket registration refused", "user_id", identity.ID().String(), "error", err)
		ch.close()
		_ = conn.Close()
		return
	}

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ch.writePump()
	}()

	h.logger.InfoContext(ctx, "websocket connected",
		"channel_id", ch.ID(),
		"user_id", identity.ID().String(),
		"groups", groups,
	)

	s.readLoop(ctx)

	h.registry.Unregister(ch.ID())
	ch.close()
	h.logger.InfoContext(ctx, "websocket disconnected", "channel_id", ch.ID(), "user_id", identity.ID().String())
}

// Shutdown closes every registered connection and waits for their writers to stop.
func (h *Handler) Shutdown(ctx context.Context) error {
	for _, ch := range h.registry.Close() {
		if c, ok := ch.(*channel); ok {
			c.close()
		}
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func tokenFrom(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	token, _ := auth.BearerToken(r.Header.Get("Authorization"))
	return token
}

// session is the per-connection state of the read loop.
type session struct {
	handler  *Handler
	channel  *channel
	identity user.User
}

func (s *session) readLoop(ctx context.Context) {
	conn := s.channel.conn
	pongWait := s.handler.opts.PongWait
	limiter := rate.NewLimiter(rate.Limit(s.handler.opts.InboundRate), s.handler.opts.InboundBurst)

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.handler.logger.WarnContext(ctx, "websocket read failed", "channel_id", s.channel.ID(), "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))

		if !limiter.Allow() {
			s.fail(ctx, "Rate limit exceeded", nil)
			continue
		}
		s.handle(ctx, data)
	}
}

// reply queues a protocol response. It gives up after the write timeout when the buffer stays full.
func (s *session) reply(ctx context.Context, typ string, payload map[string]any) {
	ctx, cancel := context.WithTimeout(ctx, s.handler.opts.WriteTimeout)
	defer cancel()

	env := notification.NewEnvelope(typ, payload, s.handler.opts.Clock())
	if err := s.channel.Send(ctx, env); err != nil && !errors.Is(err, ErrChannelClosed) {
		s.handler.logger.WarnContext(ctx, "websocket reply dropped",
			"channel_id", s.channel.ID(),
			"type", typ,
			"error", err,
		)
	}
}
