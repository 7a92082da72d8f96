// Package fanout turns committed order events into notification records and pushes them
// to the live connections of their recipients.
//
// Connections are grouped by key:
//
//	client:<userID>          every connection of a user
//	notifications:<userID>   personal notifications of a user
//	worker-gender:<gender>   workers serving clients of that gender
//	role-admin, orders-admin admins
//
// Group membership is derived once at connect time by GroupsFor.
package fanout

import (
	"strings"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/user"
)

const (
	clientPrefix        = "client:"
	notificationsPrefix = "notifications:"
	workerGenderPrefix  = "worker-gender:"

	GroupRoleAdmin   = "role-admin"
	GroupOrdersAdmin = "orders-admin"
)

func ClientGroup(id kernel.UUID) string {
	return clientPrefix + id.String()
}

func NotificationsGroup(id kernel.UUID) string {
	return notificationsPrefix + id.String()
}

// WorkerGenderGroup returns "" for an unset gender, which no connection ever joins.
func WorkerGenderGroup(g kernel.Gender) string {
	if !g.IsSet() {
		return ""
	}
	return workerGenderPrefix + g.String()
}

// GroupsFor derives the groups a connection of u joins.
func GroupsFor(u user.User) []string {
	groups := []string{ClientGroup(u.ID()), NotificationsGroup(u.ID())}

	switch u.Role() {
	case user.Worker:
		if g := WorkerGenderGroup(u.Gender()); g != "" {
			groups = append(groups, g)
		}
	case user.Admin:
		groups = append(groups, GroupRoleAdmin, GroupOrdersAdmin)
	case user.Client, user.UnknownRole:
	}
	return groups
}

// CanJoin reports whether u may subscribe to group. Everyone may join their own derived groups;
// admins may also watch any client, notifications or worker-gender group.
func CanJoin(u user.User, group string) bool {
	for _, own := range GroupsFor(u) {
		if own == group {
			return true
		}
	}

	switch u.Role() {
	case user.Admin:
		return isWellFormed(group)
	case user.Client, user.Worker, user.UnknownRole:
		return false
	}
	return false
}

// GroupKind is the metric label of a group key: its prefix without the id part.
func GroupKind(group string) string {
	if i := strings.IndexByte(group, ':'); i >= 0 {
		return group[:i]
	}
	return group
}

func isWellFormed(group string) bool {
	switch {
	case strings.HasPrefix(group, clientPrefix):
		_, err := kernel.UUIDFromString(strings.TrimPrefix(group, clientPrefix))
		return err == nil
	case strings.HasPrefix(group, notificationsPrefix):
		_, err := kernel.UUIDFromString(strings.TrimPrefix(group, notificationsPrefix))
		return err == nil
	case strings.HasPrefix(group, workerGenderPrefix):
		g, err := kernel.ParseGender(strings.TrimPrefix(group, workerGenderPrefix))
		return err == nil && g.IsSet()
	}
	return false
}
