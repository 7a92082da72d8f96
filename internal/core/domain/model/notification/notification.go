package notification

import (
	"errors"
	"maps"
	"strings"
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/pkg/errs"
	"workorders/internal/pkg/guard"
)

const maxTitleLength = 255

var ErrNotificationIsNotConstructed = errors.New("Notification must be created via NewNotification constructor")

// RelatedEntity points at the object a notification is about, e.g. {"order", <id>}.
type RelatedEntity struct {
	Kind string
	ID   kernel.UUID
}

// Params describes a notification to be created.
type Params struct {
	ID          kernel.UUID
	Type        Type
	Title       string
	Message     string
	RecipientID kernel.UUID
	SenderID    *kernel.UUID
	Related     *RelatedEntity
	Priority    Priority
	Metadata    map[string]any
}

// Notification is the durable record of one message to one recipient.
// Its status only changes through MarkSent, MarkRead, MarkFailed and Resend.
type Notification struct {
	id          kernel.UUID
	typ         Type
	title       string
	message     string
	recipientID kernel.UUID
	senderID    *kernel.UUID
	related     *RelatedEntity
	status      Status
	priority    Priority
	metadata    map[string]any
	createdAt   time.Time
	sentAt      *time.Time
	readAt      *time.Time

	// pendingSince is reset by Resend; redelivery age is measured from it.
	pendingSince  time.Time
	attempts      int
	lastAttemptAt *time.Time

	guard guard.ConstructorGuard
}

// NewNotification creates a Pending record. A zero priority takes the type's default.
func NewNotification(p Params, now time.Time) (*Notification, error) {
	if p.Priority == 0 {
		p.Priority = p.Type.DefaultPriority()
	}

	var relatedErr error
	if p.Related != nil {
		relatedErr = errors.Join(p.Related.ID.Validate(), requireNonBlank("related kind", p.Related.Kind))
	}

	if err := errors.Join(
		p.ID.Validate(),
		p.RecipientID.Validate(),
		p.Type.Validate(),
		p.Priority.Validate(),
		requireNonBlank("title", p.Title),
		relatedErr,
	); err != nil {
		return nil, err
	}
	if len(p.Title) > maxTitleLength {
		return nil, errs.NewValueIsOutOfRangeError("title length", len(p.Title), 1, maxTitleLength)
	}

	return &Notification{
		id:           p.ID,
		typ:          p.Type,
		title:        strings.TrimSpace(p.Title),
		message:      p.Message,
		recipientID:  p.RecipientID,
		senderID:     copyUUID(p.SenderID),
		related:      copyRelated(p.Related),
		status:       Pending,
		priority:     p.Priority,
		metadata:     maps.Clone(p.Metadata),
		createdAt:    now.UTC(),
		pendingSince: now.UTC(),
		guard:        guard.NewConstructorGuard(),
	}, nil
}

// Snapshot is the exported state of a record, used by persistence.
type Snapshot struct {
	ID          kernel.UUID
	Type        Type
	Title       string
	Message     string
	RecipientID kernel.UUID
	SenderID    *kernel.UUID
	Related     *RelatedEntity
	Status      Status
	Priority    Priority
	Metadata    map[string]any
	CreatedAt   time.Time
	SentAt      *time.Time
	ReadAt      *time.Time

	// A zero PendingSince is restored as CreatedAt.
	PendingSince  time.Time
	Attempts      int
	LastAttemptAt *time.Time
}

func RestoreNotification(s Snapshot) (*Notification, error) {
	if err := errors.Join(
		s.ID.Validate(),
		s.RecipientID.Validate(),
		s.Type.Validate(),
		s.Status.Validate(),
		s.Priority.Validate(),
	); err != nil {
		return nil, err
	}
	if s.Attempts < 0 {
		return nil, errs.NewValueIsInvalidError("attempts")
	}

	pendingSince := s.PendingSince
	if pendingSince.IsZero() {
		pendingSince = s.CreatedAt
	}

	return &Notification{
		id:            s.ID,
		typ:           s.Type,
		title:         s.Title,
		message:       s.Message,
		recipientID:   s.RecipientID,
		senderID:      copyUUID(s.SenderID),
		related:       copyRelated(s.Related),
		status:        s.Status,
		priority:      s.Priority,
		metadata:      maps.Clone(s.Metadata),
		createdAt:     s.CreatedAt,
		sentAt:        copyTime(s.SentAt),
		readAt:        copyTime(s.ReadAt),
		pendingSince:  pendingSince,
		attempts:      s.Attempts,
		lastAttemptAt: copyTime(s.LastAttemptAt),
		guard:         guard.NewConstructorGuard(),
	}, nil
}

func (n *Notification) Snapshot() Snapshot {
	return Snapshot{
		ID:            n.id,
		Type:          n.typ,
		Title:         n.title,
		Message:       n.message,
		RecipientID:   n.recipientID,
		SenderID:      copyUUID(n.senderID),
		Related:       copyRelated(n.related),
		Status:        n.status,
		Priority:      n.priority,
		Metadata:      maps.Clone(n.metadata),
		CreatedAt:     n.createdAt,
		SentAt:        copyTime(n.sentAt),
		ReadAt:        copyTime(n.readAt),
		PendingSince:  n.pendingSince,
		Attempts:      n.attempts,
		LastAttemptAt: copyTime(n.lastAttemptAt),
	}
}

func (n *Notification) Validate() error {
	if n == nil {
		return ErrNotificationIsNotConstructed
	}
	return n.guard.Validate(ErrNotificationIsNotConstructed)
}

func (n *Notification) ID() kernel.UUID           { return n.id }
func (n *Notification) Type() Type                { return n.typ }
func (n *Notification) Title() string             { return n.title }
func (n *Notification) Message() string           { return n.message }
func (n *Notification) RecipientID() kernel.UUID  { return n.recipientID }
func (n *Notification) SenderID() *kernel.UUID    { return copyUUID(n.senderID) }
func (n *Notification) Related() *RelatedEntity   { return copyRelated(n.related) }
func (n *Notification) Status() Status            { return n.status }
func (n *Notification) Priority() Priority        { return n.priority }
func (n *Notification) Metadata() map[string]any  { return maps.Clone(n.metadata) }
func (n *Notification) CreatedAt() time.Time      { return n.createdAt }
func (n *Notification) SentAt() *time.Time        { return copyTime(n.sentAt) }
func (n *Notification) ReadAt() *time.Time        { return copyTime(n.readAt) }
func (n *Notification) PendingSince() time.Time   { return n.pendingSince }
func (n *Notification) Attempts() int             { return n.attempts }
func (n *Notification) LastAttemptAt() *time.Time { return copyTime(n.lastAttemptAt) }

// MarkSent records that at least one live channel accepted the notification.
// It reports false when the record is already Sent.
func (n *Notification) MarkSent(now time.Time) (bool, error) {
	if n.status == Sent {
		return false, nil
	}
	if err := n.move(Sent); err != nil {
		return false, err
	}
	t := now.UTC()
	n.sentAt = &t
	return true, nil
}

// MarkRead records the recipient's acknowledgement. Only Sent records can be read.
func (n *Notification) MarkRead(now time.Time) (bool, error) {
	if n.status == Read {
		return false, nil
	}
	if err := n.move(Read); err != nil {
		return false, err
	}
	t := now.UTC()
	n.readAt = &t
	return true, nil
}

// MarkFailed gives up on delivery of a Pending record.
func (n *Notification) MarkFailed() (bool, error) {
	if n.status == Failed {
		return false, nil
	}
	if err := n.move(Failed); err != nil {
		return false, err
	}
	return true, nil
}

// RecordAttempt notes a redelivery that no channel accepted. Only Pending records count attempts.
func (n *Notification) RecordAttempt(now time.Time) bool {
	if n.status != Pending {
		return false
	}
	t := now.UTC()
	n.attempts++
	n.lastAttemptAt = &t
	return true
}

// Resend puts the record back to Pending, keeping its identity. The pending age and the
// attempt count start over at now.
func (n *Notification) Resend(now time.Time) {
	n.status = Pending
	n.sentAt = nil
	n.readAt = nil
	n.pendingSince = now.UTC()
	n.attempts = 0
	n.lastAttemptAt = nil
}

func (n *Notification) move(next Status) error {
	if n.status == next {
		return nil
	}
	if !n.status.canMove(next) {
		return errs.NewInvalidTransitionError("notification", n.status, next)
	}
	n.status = next
	return nil
}

func requireNonBlank(name, v string) error {
	if strings.TrimSpace(v) == "" {
		return errs.NewValueIsRequiredError(name)
	}
	return nil
}

func copyUUID(id *kernel.UUID) *kernel.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyRelated(r *RelatedEntity) *RelatedEntity {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
