package fanout_test

import (
	"fmt"
	"sync"
	"testing"

	"workorders/internal/core/application/fanout"
	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionRegistry_Register(t *testing.T) {
	t.Run("should place the channel in every derived group", func(t *testing.T) {
		r := fanout.NewConnectionRegistry(nil)
		w := mustUser(t, user.Worker, kernel.Female)
		ch := newChannel(w)

		groups, err := r.Register(ch, w)

		require.NoError(t, err)
		assert.ElementsMatch(t, fanout.GroupsFor(w), groups)
		for _, g := range groups {
			members := r.MembersOf(g)
			require.Len(t, members, 1, g)
			assert.Equal(t, ch.ID(), members[0].ID())
		}
	})

	t.Run("should reject unverified identities without mutating", func(t *testing.T) {
		r := fanout.NewConnectionRegistry(nil)

		_, err := r.Register(newChannel(mustUser(t, user.Client, kernel.Male)), user.User{})

		require.ErrorIs(t, err, user.ErrUserIsNotConstructed)
		assert.Equal(t, 0, r.Len())
	})

	t.Run("should reject a channel id registered twice", func(t *testing.T) {
		r := fanout.NewConnectionRegistry(nil)
		c := mustUser(t, user.Client, kernel.Male)
		ch := newChannel(c)
		_, err := r.Register(ch, c)
		require.NoError(t, err)

		_, err = r.Register(ch, c)

		require.ErrorIs(t, err, errs.ErrValueIsInvalid)
		assert.Equal(t, 1, r.Len())
	})
}

func TestConnectionRegistry_Unregister(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := fanout.NewConnectionRegistry(m)
	w := mustUser(t, user.Worker, kernel.Male)
	first, second := newChannel(w), newChannel(w)
	_, err := r.Register(first, w)
	require.NoError(t, err)
	_, err = r.Register(second, w)
	require.NoError(t, err)

	r.Unregister(first.ID())
	r.Unregister(first.ID())
	r.Unregister("unknown")

	members := r.MembersOf("worker-gender:male")
	require.Len(t, members, 1)
	assert.Equal(t, second.ID(), members[0].ID())
	assert.Nil(t, r.GroupsOf(first.ID()))
	assert.InDelta(t, 1, testutil.ToFloat64(m.Connections), 0)
}

func TestConnectionRegistry_Subscriptions(t *testing.T) {
	r := fanout.NewConnectionRegistry(nil)
	client := mustUser(t, user.Client, kernel.Female)
	admin := mustUser(t, user.Admin, kernel.NoGender)
	clientCh, adminCh := newChannel(client), newChannel(admin)
	_, err := r.Register(clientCh, client)
	require.NoError(t, err)
	_, err = r.Register(adminCh, admin)
	require.NoError(t, err)

	t.Run("should let admins watch a client", func(t *testing.T) {
		group := fanout.ClientGroup(client.ID())

		require.NoError(t, r.Subscribe(adminCh.ID(), group))

		assert.Len(t, r.MembersOf(group), 2)
		assert.Contains(t, r.GroupsOf(adminCh.ID()), group)
	})

	t.Run("should deny groups outside the entitlement", func(t *testing.T) {
		err := r.Subscribe(clientCh.ID(), fanout.GroupRoleAdmin)

		require.ErrorIs(t, err, errs.ErrPermissionDenied)
		assert.Len(t, r.MembersOf(fanout.GroupRoleAdmin), 1)
	})

	t.Run("should leave a group and tolerate leaving twice", func(t *testing.T) {
		group := fanout.ClientGroup(client.ID())

		require.NoError(t, r.Unsubscribe(adminCh.ID(), group))
		require.NoError(t, r.Unsubscribe(adminCh.ID(), group))

		assert.Len(t, r.MembersOf(group), 1)
	})

	t.Run("should report unknown channels", func(t *testing.T) {
		require.ErrorIs(t, r.Subscribe("missing", fanout.GroupRoleAdmin), errs.ErrObjectNotFound)
		require.ErrorIs(t, r.Unsubscribe("missing", fanout.GroupRoleAdmin), errs.ErrObjectNotFound)
	})
}

func TestConnectionRegistry_Close(t *testing.T) {
	r := fanout.NewConnectionRegistry(nil)
	c := mustUser(t, user.Client, kernel.Male)
	ch := newChannel(c)
	_, err := r.Register(ch, c)
	require.NoError(t, err)

	dropped := r.Close()

	require.Len(t, dropped, 1)
	assert.Equal(t, ch.ID(), dropped[0].ID())
	assert.Equal(t, 0, r.Len())
	assert.Empty(t, r.MembersOf(fanout.ClientGroup(c.ID())))

	_, err = r.Register(newChannel(c), c)
	require.ErrorIs(t, err, fanout.ErrRegistryClosed)
}

func TestConnectionRegistry_Concurrency(t *testing.T) {
	r := fanout.NewConnectionRegistry(nil)
	const workers = 32

	users := make([]user.User, workers)
	for i := range users {
		gender := kernel.Male
		if i%2 == 0 {
			gender = kernel.Female
		}
		users[i] = mustUser(t, user.Worker, gender)
	}

	var wg sync.WaitGroup
	for i, w := range users {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch := newChannel(w)
			if _, err := r.Register(ch, w); err != nil {
				t.Error(fmt.Errorf("register %d: %w", i, err))
				return
			}
			_ = r.MembersOf(fanout.WorkerGenderGroup(w.Gender()))
			if i%4 == 0 {
				r.Unregister(ch.ID())
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers-workers/4, r.Len())
	assert.Len(t, r.MembersOf("worker-gender:male"), workers/2)
	assert.Len(t, r.MembersOf("worker-gender:female"), workers/2-workers/4)
}
