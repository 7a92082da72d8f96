package fanout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/notification"
	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/model/user"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

var errChannelClosed = errors.New("channel closed")

type fakeChannel struct {
	id     string
	userID kernel.UUID

	// onSend runs before the send is attempted.
	onSend func()
	err    error
	stall  bool

	mu  sync.Mutex
	got []notification.Envelope
}

func newChannel(u user.User) *fakeChannel {
	return &fakeChannel{id: kernel.NewUUID().String(), userID: u.ID()}
}

func (c *fakeChannel) ID() string          { return c.id }
func (c *fakeChannel) UserID() kernel.UUID { return c.userID }

func (c *fakeChannel) Send(ctx context.Context, env notification.Envelope) error {
	if c.onSend != nil {
		c.onSend()
	}
	if c.err != nil {
		return c.err
	}
	if c.stall {
		<-ctx.Done()
		return ctx.Err()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, env)
	return nil
}

func (c *fakeChannel) received() []notification.Envelope {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]notification.Envelope(nil), c.got...)
}

type MockNotificationStore struct {
	mock.Mock

	mu      sync.Mutex
	created []*notification.Notification
}

func (m *MockNotificationStore) Create(ctx context.Context, n *notification.Notification) (kernel.UUID, error) {
	args := m.Called(ctx, n)
	if err := args.Error(0); err != nil {
		return kernel.UUID{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, n)
	return n.ID(), nil
}

func (m *MockNotificationStore) Get(ctx context.Context, id kernel.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*notification.Notification)
	return n, args.Error(1)
}

func (m *MockNotificationStore) MarkSent(ctx context.Context, id kernel.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationStore) MarkRead(ctx context.Context, id kernel.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationStore) MarkFailed(ctx context.Context, id kernel.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationStore) Resend(ctx context.Context, id kernel.UUID) (*notification.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*notification.Notification)
	return n, args.Error(1)
}

func (m *MockNotificationStore) RecordAttempt(ctx context.Context, id kernel.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockNotificationStore) GetPending(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*notification.Notification, error) {
	args := m.Called(ctx, before, limit)
	ns, _ := args.Get(0).([]*notification.Notification)
	return ns, args.Error(1)
}

// recordFor returns the created record addressed to recipient, failing when there is none.
func (m *MockNotificationStore) recordFor(t *testing.T, recipient kernel.UUID) *notification.Notification {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.created {
		if n.RecipientID().IsEqual(recipient) {
			return n
		}
	}
	require.FailNow(t, "no notification created for recipient", recipient.String())
	return nil
}

type MockUserRepository struct{ mock.Mock }

func (m *MockUserRepository) Add(ctx context.Context, u user.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepository) Get(ctx context.Context, id kernel.UUID) (user.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(user.User)
	return u, args.Error(1)
}

func (m *MockUserRepository) GetWorkersByGender(ctx context.Context, g kernel.Gender) ([]user.User, error) {
	args := m.Called(ctx, g)
	us, _ := args.Get(0).([]user.User)
	return us, args.Error(1)
}

func mustUser(t *testing.T, role user.Role, gender kernel.Gender) user.User {
	t.Helper()
	u, err := user.NewUser(kernel.NewUUID(), role.String()+"-"+kernel.NewUUID().String()[:8], role, gender)
	require.NoError(t, err)
	return u
}

func mustOrder(t *testing.T, client user.User) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), client, "Window cleaning", "", 1000, now)
	require.NoError(t, err)
	return o
}
