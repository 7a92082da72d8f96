package order

import (
	"fmt"

	"workorders/internal/pkg/errs"
)

// Status is the lifecycle state of an order.
//
//	Pending ──> Paid ──> InProgress ──> Completed
//	   │          │           │
//	   └──────────┴───────────┴──────> Canceled
type Status int

const (
	// Unknown catches uninitialized values; it is never a valid state.
	Unknown Status = iota
	Pending
	Paid
	InProgress
	Completed
	Canceled
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		Unknown:    "unknown",
		Pending:    "pending",
		Paid:       "paid",
		InProgress: "in_progress",
		Completed:  "completed",
		Canceled:   "canceled",
	}
}

// transitions is the complete directed graph of legal status changes.
// Self-edges are absent; requesting the current status is a no-op at the call site.
//
//nolint:exhaustive // Unknown has no outgoing edges
var transitions = map[Status]map[Status]struct{}{
	Pending:    {Paid: {}, Canceled: {}},
	Paid:       {InProgress: {}, Canceled: {}},
	InProgress: {Completed: {}, Canceled: {}},
	Completed:  {},
	Canceled:   {},
}

// IsLegal reports whether an order in current may move to requested.
// It is total: any pair not in the graph, including every self-pair, is illegal.
func IsLegal(current, requested Status) bool {
	_, ok := transitions[current][requested]
	return ok
}

// AllStatuses lists the valid statuses in lifecycle order.
func AllStatuses() []Status {
	return []Status{Pending, Paid, InProgress, Completed, Canceled}
}

// ParseStatus maps the wire form ("pending", "in_progress", ...) to a Status.
func ParseStatus(s string) (Status, error) {
	for _, status := range AllStatuses() {
		if status.String() == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid status", s))
}

// Validate accepts only the five lifecycle states.
func (s Status) Validate() error {
	if _, ok := transitions[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status is invalid", fmt.Errorf("%d is not a valid status", s))
	}
	return nil
}

// CanTransitionTo is IsLegal with s as the current state.
func (s Status) CanTransitionTo(next Status) bool {
	return IsLegal(s, next)
}

// IsTerminal reports whether no edge leaves s.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Canceled
}

// IsCancelable reports whether s has an edge to Canceled.
func (s Status) IsCancelable() bool {
	return IsLegal(s, Canceled)
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

// MarshalText renders the wire form so statuses serialize as strings.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
