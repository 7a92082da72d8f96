package ws_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"workorders/internal/adapters/in/ws"
	"workorders/internal/core/application/fanout"
	"workorders/internal/core/application/usecases/commands"
	"workorders/internal/core/application/usecases/queries"
	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/notification"
	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 8, 1, 15, 0, 0, 0, time.UTC)

type tokenVerifier map[string]user.User

func (v tokenVerifier) VerifyToken(_ context.Context, token string) (user.User, error) {
	u, ok := v[token]
	if !ok {
		return user.User{}, errs.ErrUnauthenticated
	}
	return u, nil
}

type orderReaderFunc func(context.Context, queries.GetOrderQuery) (queries.OrderResponse, error)

func (f orderReaderFunc) Handle(ctx context.Context, q queries.GetOrderQuery) (queries.OrderResponse, error) {
	return f(ctx, q)
}

type orderListerFunc func(context.Context, queries.GetUserOrdersQuery) ([]queries.OrderResponse, error)

func (f orderListerFunc) Handle(ctx context.Context, q queries.GetUserOrdersQuery) ([]queries.OrderResponse, error) {
	return f(ctx, q)
}

type markerFunc func(context.Context, commands.MarkNotificationReadCommand) (bool, error)

func (f markerFunc) Handle(ctx context.Context, c commands.MarkNotificationReadCommand) (bool, error) {
	return f(ctx, c)
}

type fixture struct {
	registry *fanout.ConnectionRegistry
	handler  *ws.Handler
	server   *httptest.Server

	client user.User
	admin  user.User

	mu      sync.Mutex
	orders  orderReaderFunc
	history orderListerFunc
	marker  markerFunc
}

func (f *fixture) setOrders(fn orderReaderFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = fn
}

func (f *fixture) setHistory(fn orderListerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = fn
}

func (f *fixture) setMarker(fn markerFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marker = fn
}

func mustUser(t *testing.T, role user.Role, gender kernel.Gender) user.User {
	t.Helper()
	u, err := user.NewUser(kernel.NewUUID(), role.String(), role, gender)
	require.NoError(t, err)
	return u
}

func newFixture(t *testing.T, opts ws.Options) *fixture {
	t.Helper()
	f := &fixture{
		registry: fanout.NewConnectionRegistry(nil),
		client:   mustUser(t, user.Client, kernel.Female),
		admin:    mustUser(t, user.Admin, kernel.NoGender),
	}
	f.orders = func(context.Context, queries.GetOrderQuery) (queries.OrderResponse, error) {
		return queries.OrderResponse{}, errs.NewObjectNotFoundError("order", "x")
	}
	f.history = func(context.Context, queries.GetUserOrdersQuery) ([]queries.OrderResponse, error) {
		return nil, nil
	}
	f.marker = func(context.Context, commands.MarkNotificationReadCommand) (bool, error) {
		return true, nil
	}

	opts.Clock = func() time.Time { return now }
	verifier := tokenVerifier{"client-token": f.client, "admin-token": f.admin}
	h, err := ws.NewHandler(
		f.registry,
		verifier,
		orderReaderFunc(func(ctx context.Context, q queries.GetOrderQuery) (queries.OrderResponse, error) {
			f.mu.Lock()
			fn := f.orders
			f.mu.Unlock()
			return fn(ctx, q)
		}),
		orderListerFunc(func(ctx context.Context, q queries.GetUserOrdersQuery) ([]queries.OrderResponse, error) {
			f.mu.Lock()
			fn := f.history
			f.mu.Unlock()
			return fn(ctx, q)
		}),
		markerFunc(func(ctx context.Context, c commands.MarkNotificationReadCommand) (bool, error) {
			f.mu.Lock()
			fn := f.marker
			f.mu.Unlock()
			return fn(ctx, c)
		}),
		nil,
		opts,
	)
	require.NoError(t, err)
	f.handler = h
	f.server = httptest.NewServer(h)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fixture) dial(t *testing.T, token string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// connect dials and consumes the connection confirmation.
func (f *fixture) connect(t *testing.T, token string) (*websocket.Conn, notification.Envelope) {
	t.Helper()
	conn := f.dial(t, token)
	env := read(t, conn)
	require.Equal(t, "connection_confirmed", env.Type)
	return conn, env
}

func read(t *testing.T, conn *websocket.Conn) notification.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var env notification.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	return env
}

func send(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func TestHandler_Handshake(t *testing.T) {
	t.Run("should confirm the connection with the derived groups", func(t *testing.T) {
		f := newFixture(t, ws.Options{})

		_, env := f.connect(t, "client-token")

		assert.Equal(t, f.client.ID().String(), env.Payload["user_id"])
		assert.Equal(t, "client", env.Payload["role"])
		assert.ElementsMatch(t,
			[]any{fanout.ClientGroup(f.client.ID()), fanout.NotificationsGroup(f.client.ID())},
			env.Payload["groups"],
		)
		assert.Equal(t, 1, f.registry.Len())
	})

	t.Run("should accept a bearer header", func(t *testing.T) {
		f := newFixture(t, ws.Options{})
		url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws/notifications"
		header := http.Header{"Authorization": []string{"Bearer admin-token"}}

		conn, resp, err := websocket.DefaultDialer.Dial(url, header)
		require.NoError(t, err)
		_ = resp.Body.Close()
		defer conn.Close()

		assert.Equal(t, "connection_confirmed", read(t, conn).Type)
	})

	t.Run("should close unauthenticated connections with 4001", func(t *testing.T) {
		f := newFixture(t, ws.Options{})
		conn := f.dial(t, "forged")

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()

		var closeErr *websocket.CloseError
		require.ErrorAs(t, err, &closeErr)
		assert.Equal(t, ws.CloseUnauthenticated, closeErr.Code)
		assert.Equal(t, "unauthenticated", closeErr.Text)
		assert.Equal(t, 0, f.registry.Len())
	})

	t.Run("should unregister on disconnect", func(t *testing.T) {
		f := newFixture(t, ws.Options{})
		conn, _ := f.connect(t, "client-token")

		require.NoError(t, conn.Close())

		assert.Eventually(t, func() bool { return f.registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
	})
}

func TestHandler_Delivery(t *testing.T) {
	t.Run("should write envelopes sent to the registered channel", func(t *testing.T) {
		f := newFixture(t, ws.Options{})
		conn, _ := f.connect(t, "client-token")
		members := f.registry.MembersOf(fanout.ClientGroup(f.client.ID()))
		require.Len(t, members, 1)

		err := members[0].Send(t.Context(), notification.NewEnvelope("order_updated", map[string]any{
			"order_id": "42",
		}, now))

		require.NoError(t, err)
		env := read(t, conn)
		assert.Equal(t, "order_updated", env.Type)
		assert.Equal(t, "42", env.Payload["order_id"])
	})

	t.Run("should close connections on shutdown", func(t *testing.T) {
		f := newFixture(t, ws.Options{})
		conn, _ := f.connect(t, "client-token")
		members := f.registry.MembersOf(fanout.ClientGroup(f.client.ID()))
		require.Len(t, members, 1)

		require.NoError(t, f.handler.Shutdown(t.Context()))

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		_, _, err := conn.ReadMessage()
		require.Error(t, err)
		assert.Equal(t, 0, f.registry.Len())
		require.ErrorIs(t, members[0].Send(t.Context(), notification.NewEnvelope("x", nil, now)), ws.ErrChannelClosed)
	})
}

func TestHandler_Protocol(t *testing.T) {
	t.Run("should answer ping with pong", func(t *testing.T) {
		f := newFixture(t, ws.Options{})
		conn, _ := f.connect(t, "client-token")

		send(t, conn, `{"type":"ping"}`)

		assert.Equal(t, "pong", read(t, conn).Type)
	})

	t.Run("should report malformed messages", func(t *testing.T) {
		tests := []struct {
			raw  string
			want string
		}{
			{`{not json`, "Invalid JSON format"},
			{`{"order_id":"1"}`, "Invalid message structure"},
			{`{"type":7}`, "Invalid message structure"},
			{`[1,2]`, "Invalid message structure"},
			{`{"type":"teleport"}`, "Unknown message type: teleport"},
		}
		f := newFixture(t, ws.Options{})
		conn, _ := f.connect(t, "client-token")

		for _, tt := range tests {
			send(t, conn, tt.raw)

			env := read(t, conn)
			assert.Equal(t, "error", env.Type, tt.raw)
			assert.Equal(t, tt.want, env.Payload["error"], tt.raw)
		}
	})

	t.Run("should enforce subscribe entitlement", func(t *testing.T) {
		f := newFixture(t, ws.Options{})
		clientConn, _ := f.connect(t, "client-token")
		adminConn, _ := f.connect(t, "admin-token")
		foreign := fanout.ClientGroup(kernel.NewUUID())

		send(t, clientConn, `{"type":"subscribe","group_name":"`+foreign+`"}`)
		denied := read(t, clientConn)
		assert.Equal(t, "error", denied.Type)
		assert.Equal(t, errs.CodePermissionDenied, denied.Payload["code"])

		send(t, adminConn, `{"type":"subscribe","group_name":"`+foreign+`"}`)
		ok := read(t, adminConn)
		assert.Equal(t, "subscribed", ok.Type)
		assert.Equal(t, foreign, ok.Payload["group_name"])
		assert.Len(t, f.registry.MembersOf(foreign), 1)

		send(t, adminConn, `{"type":"unsubscribe","group_name":"`+foreign+`"}`)
		assert.Equal(t, "unsubscribed", read(t, adminConn).Type)
		assert.Empty(t, f.registry.MembersOf(foreign))
	})

	t.Run("should answer order status requests", func(t *testing.T) {
		f := newFixture(t, ws.Options{})
		known := kernel.NewUUID()
		f.setOrders(func(_ context.Context, q queries.GetOrderQuery) (queries.OrderResponse, error) {
			if !q.OrderID().IsEqual(known) {
				return queries.OrderResponse{}, errs.NewPermissionDeniedError("view order")
			}
			return queries.OrderResponse{ID: known, Status: order.Paid, CreatedAt: now, UpdatedAt: now}, nil
		})
		conn, _ := f.connect(t, "client-token")

		send(t, conn, `{"type":"order_status_request","order_id":"`+known.String()+`"}`)
		env := read(t, conn)
		assert.Equal(t, "order_status_response", env.Type)
		assert.Equal(t, known.String(), env.Payload["order_id"])
		assert.Equal(t, "paid", env.Payload["status"])

		send(t, conn, `{"type":"order_status_request","order_id":"`+kernel.NewUUID().String()+`"}`)
		env = read(t, conn)
		assert.Equal(t, "error", env.Type)
		assert.Equal(t, "Order not found", env.Payload["error"])

		send(t, conn, `{"type":"order_status_request"}`)
		assert.Equal(t, "Order ID is required", read(t, conn).Payload["error"])
	})

	t.Run("should answer history requests with the default limit", func(t *testing.T) {
		f := newFixture(t, ws.Options{})
		limits := make(chan int, 1)
		f.setHistory(func(_ context.Context, q queries.GetUserOrdersQuery) ([]queries.OrderResponse, error) {
			limits <- q.Limit()
			return []queries.OrderResponse{
				{ID: kernel.NewUUID(), ServiceName: "Cleaning", Status: order.Pending, Price: 100, CreatedAt: now},
			}, nil
		})
		conn, _ := f.connect(t, "client-token")

		send(t, conn, `{"type":"order_history_request"}`)

		env := read(t, conn)
		assert.Equal(t, "order_history_response", env.Type)
		orders, ok := env.Payload["orders"].([]any)
		require.True(t, ok)
		require.Len(t, orders, 1)
		assert.Equal(t, "Cleaning", orders[0].(map[string]any)["service_name"])
		assert.Equal(t, queries.DefaultOrdersLimit, <-limits)
	})

	t.Run("should mark notifications read", func(t *testing.T) {
		f := newFixture(t, ws.Options{})
		id := kernel.NewUUID()
		conn, _ := f.connect(t, "client-token")

		send(t, conn, `{"type":"mark_read","notification_id":"`+id.String()+`"}`)
		env := read(t, conn)
		assert.Equal(t, "mark_read_response", env.Type)
		assert.Equal(t, "read", env.Payload["status"])

		f.setMarker(func(context.Context, commands.MarkNotificationReadCommand) (bool, error) {
			return false, errs.NewPermissionDeniedError("mark notification read")
		})
		send(t, conn, `{"type":"mark_read","notification_id":"`+id.String()+`"}`)
		env = read(t, conn)
		assert.Equal(t, "error", env.Type)
		assert.Equal(t, errs.CodePermissionDenied, env.Payload["code"])
	})

	t.Run("should rate limit inbound messages", func(t *testing.T) {
		f := newFixture(t, ws.Options{InboundRate: 0.001, InboundBurst: 1})
		conn, _ := f.connect(t, "client-token")

		send(t, conn, `{"type":"ping"}`)
		send(t, conn, `{"type":"ping"}`)

		assert.Equal(t, "pong", read(t, conn).Type)
		env := read(t, conn)
		assert.Equal(t, "error", env.Type)
		assert.Equal(t, "Rate limit exceeded", env.Payload["error"])
	})
}
