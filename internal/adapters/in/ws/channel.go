package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/notification"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var ErrChannelClosed = errors.New("channel is closed")

// channel is one socket connection. Sends are queued on a bounded buffer and written by
// writePump, the only goroutine writing data frames to the connection.
type channel struct {
	id     string
	userID kernel.UUID
	conn   *websocket.Conn

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	writeTimeout time.Duration
	pingPeriod   time.Duration
}

func newChannel(conn *websocket.Conn, userID kernel.UUID, opts Options) *channel {
	return &channel{
		id:           uuid.NewString(),
		userID:       userID,
		conn:         conn,
		send:         make(chan []byte, opts.SendBuffer),
		done:         make(chan struct{}),
		writeTimeout: opts.WriteTimeout,
		pingPeriod:   opts.PongWait * 9 / 10,
	}
}

func (c *channel) ID() string          { return c.id }
func (c *channel) UserID() kernel.UUID { return c.userID }

// Send queues env for writing. It blocks while the buffer is full until ctx is done or
// the channel closes.
func (c *channel) Send(ctx context.Context, env notification.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}

	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	case <-c.done:
		return ErrChannelClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *channel) close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

func (c *channel) closed() <-chan struct{} {
	return c.done
}

func (c *channel) writePump() {
	ticker := time.NewTicker(c.pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout)); err != nil {
				c.close()
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(c.writeTimeout),
			)
			return
		}
	}
}
