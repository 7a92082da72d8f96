package notification

import "workorders/internal/pkg/errs"

// Priority orders notifications for display; 1 is lowest.
type Priority int

const (
	Low Priority = iota + 1
	Normal
	High
	Urgent
)

func (p Priority) Validate() error {
	if p < Low || p > Urgent {
		return errs.NewValueIsOutOfRangeError("priority", int(p), int(Low), int(Urgent))
	}
	return nil
}
