package commands_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"workorders/internal/core/application/usecases/commands"
	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/order"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/core/domain/services"
	"workorders/internal/core/ports"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/keyedmutex"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return now }

// memoryDB keeps committed orders and users. Order writes are versioned like the SQL repository.
type memoryDB struct {
	mu     sync.Mutex
	orders map[kernel.UUID]order.Snapshot
	users  map[kernel.UUID]user.User
}

func newMemoryDB() *memoryDB {
	return &memoryDB{orders: map[kernel.UUID]order.Snapshot{}, users: map[kernel.UUID]user.User{}}
}

func (db *memoryDB) Create() commands.OrderUoW {
	return &memoryUoW{db: db}
}

func (db *memoryDB) addUser(u user.User) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[u.ID()] = u
}

func (db *memoryDB) seed(t *testing.T, o *order.Order) {
	t.Helper()
	db.mu.Lock()
	defer db.mu.Unlock()
	db.orders[o.ID()] = o.Snapshot()
}

func (db *memoryDB) order(t *testing.T, id kernel.UUID) *order.Order {
	t.Helper()
	db.mu.Lock()
	defer db.mu.Unlock()
	s, ok := db.orders[id]
	require.True(t, ok, "order %s is not stored", id)
	o, err := order.RestoreOrder(s)
	require.NoError(t, err)
	return o
}

type memoryUoW struct {
	db     *memoryDB
	active bool
	staged []order.Snapshot
}

func (u *memoryUoW) Begin(context.Context) error {
	u.active = true
	return nil
}

func (u *memoryUoW) Commit(context.Context) error {
	if !u.active {
		return errs.NewValueIsInvalidError("transaction")
	}
	u.db.mu.Lock()
	defer u.db.mu.Unlock()
	for _, s := range u.staged {
		u.db.orders[s.ID] = s
	}
	u.staged = nil
	u.active = false
	return nil
}

func (u *memoryUoW) Rollback(context.Context) error {
	if !u.active {
		return errs.NewValueIsInvalidError("transaction")
	}
	u.staged = nil
	u.active = false
	return nil
}

func (u *memoryUoW) OrderRepository() ports.OrderRepository { return memoryOrders{u} }
func (u *memoryUoW) UserRepository() ports.UserRepository   { return memoryUsers{u.db} }

type memoryOrders struct{ uow *memoryUoW }

func (r memoryOrders) Add(_ context.Context, o *order.Order) error {
	r.uow.staged = append(r.uow.staged, o.Snapshot())
	return nil
}

func (r memoryOrders) Update(_ context.Context, o *order.Order) error {
	r.uow.db.mu.Lock()
	stored, ok := r.uow.db.orders[o.ID()]
	r.uow.db.mu.Unlock()

	if !ok {
		return errs.NewObjectNotFoundError("order", o.ID().String())
	}
	if stored.Version != o.Version() {
		return errs.NewVersionConflictError("order", o.ID().String(), o.Version())
	}
	o.AdvanceVersion()
	r.uow.staged = append(r.uow.staged, o.Snapshot())
	return nil
}

func (r memoryOrders) Get(_ context.Context, id kernel.UUID) (*order.Order, error) {
	r.uow.db.mu.Lock()
	s, ok := r.uow.db.orders[id]
	r.uow.db.mu.Unlock()

	if !ok {
		return nil, errs.NewObjectNotFoundError("order", id.String())
	}
	return order.RestoreOrder(s)
}

type memoryUsers struct{ db *memoryDB }

func (r memoryUsers) Add(_ context.Context, u user.User) error {
	r.db.addUser(u)
	return nil
}

func (r memoryUsers) Get(_ context.Context, id kernel.UUID) (user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	u, ok := r.db.users[id]
	if !ok {
		return user.User{}, errs.NewObjectNotFoundError("user", id.String())
	}
	return u, nil
}

func (r memoryUsers) GetWorkersByGender(_ context.Context, g kernel.Gender) ([]user.User, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var workers []user.User
	for _, u := range r.db.users {
		if u.IsWorker() && g.IsSet() && u.Gender() == g {
			workers = append(workers, u)
		}
	}
	return workers, nil
}

type MockNotifier struct{ mock.Mock }

func (m *MockNotifier) OrderCreated(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockNotifier) OrderUpdated(ctx context.Context, o *order.Order, oldStatus order.Status) error {
	args := m.Called(ctx, o, oldStatus)
	return args.Error(0)
}

func (m *MockNotifier) PaymentProcessed(ctx context.Context, o *order.Order, success bool) error {
	args := m.Called(ctx, o, success)
	return args.Error(0)
}

func (m *MockNotifier) WorkerAssigned(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

type fixture struct {
	db       *memoryDB
	notifier *MockNotifier
	writer   commands.OrderWriter
	machine  services.OrderStateMachine

	client user.User
	worker user.User
	admin  user.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		db:       newMemoryDB(),
		notifier: new(MockNotifier),
		machine:  services.NewOrderStateMachine(fixedClock),
		client:   mustUser(t, user.Client, kernel.Female),
		worker:   mustUser(t, user.Worker, kernel.Female),
		admin:    mustUser(t, user.Admin, kernel.NoGender),
	}
	for _, u := range []user.User{f.client, f.worker, f.admin} {
		f.db.addUser(u)
	}

	w, err := commands.NewOrderWriter(f.db, keyedmutex.New(), f.notifier, nil, nil)
	require.NoError(t, err)
	f.writer = w
	return f
}

// seedOrder stores a fresh order of the fixture client and drives it to status.
func (f *fixture) seedOrder(t *testing.T, status order.Status) *order.Order {
	t.Helper()
	o, err := order.NewOrder(kernel.NewUUID(), f.client, "Deep cleaning", "two rooms", 1000, now)
	require.NoError(t, err)

	switch status {
	case order.Pending:
	case order.Canceled:
		require.True(t, o.Cancel("seeded", now))
	case order.Paid, order.InProgress, order.Completed:
		_, err = o.Transition(order.Paid, order.Changes{}, now)
		require.NoError(t, err)
		if status == order.Paid {
			break
		}
		require.True(t, o.AssignWorker(f.worker, now))
		require.True(t, o.StartWork(f.worker.ID(), now))
		if status == order.Completed {
			require.True(t, o.Complete(f.worker.ID(), now))
		}
	case order.Unknown:
		t.Fatalf("cannot seed an order in %s", status)
	}

	f.db.seed(t, o)
	return o
}

func mustUser(t *testing.T, role user.Role, gender kernel.Gender) user.User {
	t.Helper()
	u, err := user.NewUser(kernel.NewUUID(), role.String(), role, gender)
	require.NoError(t, err)
	return u
}
