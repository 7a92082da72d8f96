package notification

import (
	"fmt"

	"workorders/internal/pkg/errs"
)

// Status is the delivery state of a notification record.
type Status int

const (
	UnknownStatus Status = iota
	Pending
	Sent
	Read
	Failed
)

func getStatusStrings() map[Status]string {
	return map[Status]string{
		UnknownStatus: "unknown",
		Pending:       "pending",
		Sent:          "sent",
		Read:          "read",
		Failed:        "failed",
	}
}

//nolint:exhaustive // Read and Failed are terminal, UnknownStatus is never stored
var transitions = map[Status]Status{
	Pending: Sent,
	Sent:    Read,
}

// canMove reports whether a record in s may move to next.
// Pending also reaches Failed.
func (s Status) canMove(next Status) bool {
	if s == Pending && next == Failed {
		return true
	}
	to, ok := transitions[s]
	return ok && to == next
}

func ParseStatus(s string) (Status, error) {
	for status, str := range getStatusStrings() {
		if status != UnknownStatus && str == s {
			return status, nil
		}
	}
	return UnknownStatus, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a notification status", s))
}

func (s Status) Validate() error {
	switch s {
	case Pending, Sent, Read, Failed:
		return nil
	case UnknownStatus:
	}
	return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a notification status", s))
}

func (s Status) String() string {
	if str, ok := getStatusStrings()[s]; ok {
		return str
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
