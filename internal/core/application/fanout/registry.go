package fanout

import (
	"errors"
	"slices"
	"sync"

	"workorders/internal/core/domain/model/user"
	"workorders/internal/core/ports"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/metrics"
)

var ErrRegistryClosed = errors.New("connection registry is closed")

type registration struct {
	channel  ports.Channel
	identity user.User
	groups   map[string]struct{}
}

// ConnectionRegistry maps group keys to the live channels in them.
//
// It is created at process start and closed at shutdown. All methods are safe for concurrent use;
// MembersOf returns a snapshot, so a channel unregistered during a broadcast simply stops
// appearing in later lookups while in-flight sends to it fail on their own.
type ConnectionRegistry struct {
	mu       sync.RWMutex
	channels map[string]*registration
	groups   map[string]map[string]ports.Channel
	closed   bool
	metrics  *metrics.Metrics
}

func NewConnectionRegistry(m *metrics.Metrics) *ConnectionRegistry {
	return &ConnectionRegistry{
		channels: make(map[string]*registration),
		groups:   make(map[string]map[string]ports.Channel),
		metrics:  m,
	}
}

// Register adds ch under every group derived from identity and returns those groups.
// Registration and group derivation happen under one lock.
func (r *ConnectionRegistry) Register(ch ports.Channel, identity user.User) ([]string, error) {
	if err := identity.Validate(); err != nil {
		return nil, err
	}
	groups := GroupsFor(identity)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRegistryClosed
	}
	if _, exists := r.channels[ch.ID()]; exists {
		return nil, errs.NewValueIsInvalidError("channel id " + ch.ID())
	}

	reg := &registration{channel: ch, identity: identity, groups: make(map[string]struct{}, len(groups))}
	r.channels[ch.ID()] = reg
	for _, g := range groups {
		r.join(reg, g)
	}

	r.metrics.ConnectionOpened()
	return groups, nil
}

// Unregister removes the channel from every group. Unknown ids are ignored.
func (r *ConnectionRegistry) Unregister(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.channels[channelID]
	if !ok {
		return
	}
	for g := range reg.groups {
		r.leave(reg, g)
	}
	delete(r.channels, channelID)
	r.metrics.ConnectionClosed()
}

// MembersOf returns the channels currently in group.
func (r *ConnectionRegistry) MembersOf(group string) []ports.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.groups[group]
	result := make([]ports.Channel, 0, len(members))
	for _, ch := range members {
		result = append(result, ch)
	}
	return result
}

// GroupsOf returns the sorted groups of a registered channel.
func (r *ConnectionRegistry) GroupsOf(channelID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reg, ok := r.channels[channelID]
	if !ok {
		return nil
	}
	groups := make([]string, 0, len(reg.groups))
	for g := range reg.groups {
		groups = append(groups, g)
	}
	slices.Sort(groups)
	return groups
}

// Subscribe adds a registered channel to group if its identity is entitled to it.
func (r *ConnectionRegistry) Subscribe(channelID, group string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.channels[channelID]
	if !ok {
		return errs.NewObjectNotFoundError("channel", channelID)
	}
	if !CanJoin(reg.identity, group) {
		return errs.NewPermissionDeniedErrorWithReason("subscribe", "not entitled to group "+group)
	}
	r.join(reg, group)
	return nil
}

// Unsubscribe removes a registered channel from group. Leaving a group it is not in is a no-op.
func (r *ConnectionRegistry) Unsubscribe(channelID, group string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.channels[channelID]
	if !ok {
		return errs.NewObjectNotFoundError("channel", channelID)
	}
	r.leave(reg, group)
	return nil
}

// Len returns the number of registered channels.
func (r *ConnectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}

// Close empties the registry, refuses further registrations and returns the channels it held
// so the caller can close them.
func (r *ConnectionRegistry) Close() []ports.Channel {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	dropped := make([]ports.Channel, 0, len(r.channels))
	for _, reg := range r.channels {
		dropped = append(dropped, reg.channel)
		r.metrics.ConnectionClosed()
	}
	r.channels = make(map[string]*registration)
	r.groups = make(map[string]map[string]ports.Channel)
	return dropped
}

func (r *ConnectionRegistry) join(reg *registration, group string) {
	members, ok := r.groups[group]
	if !ok {
		members = make(map[string]ports.Channel)
		r.groups[group] = members
	}
	members[reg.channel.ID()] = reg.channel
	reg.groups[group] = struct{}{}
}

func (r *ConnectionRegistry) leave(reg *registration, group string) {
	delete(reg.groups, group)
	members, ok := r.groups[group]
	if !ok {
		return
	}
	delete(members, reg.channel.ID())
	if len(members) == 0 {
		delete(r.groups, group)
	}
}
