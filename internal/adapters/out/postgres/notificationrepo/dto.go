// Package notificationrepo is the PostgreSQL notification store.
// Status marks are compare-and-swap updates on the status column, retried on contention.
package notificationrepo

import (
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/notification"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type NotificationDTO struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey"`
	Type        string            `gorm:"type:varchar(32);not null"`
	Title       string            `gorm:"type:varchar(255);not null"`
	Message     string            `gorm:"type:text"`
	RecipientID uuid.UUID         `gorm:"type:uuid;not null;index"`
	SenderID    *uuid.UUID        `gorm:"type:uuid"`
	RelatedKind string            `gorm:"type:varchar(32)"`
	RelatedID   *uuid.UUID        `gorm:"type:uuid;index"`
	Status      string            `gorm:"type:varchar(10);not null;index:idx_notifications_pending,priority:1"`
	Priority    int               `gorm:"not null"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt   time.Time         `gorm:"not null;autoCreateTime:false"`
	SentAt      *time.Time
	ReadAt      *time.Time

	PendingSince  time.Time  `gorm:"not null;index:idx_notifications_pending,priority:3"`
	Attempts      int        `gorm:"not null;default:0"`
	LastAttemptAt *time.Time `gorm:"index:idx_notifications_pending,priority:2"`
}

func (NotificationDTO) TableName() string {
	return "notifications"
}

func fromDomain(n *notification.Notification) NotificationDTO {
	s := n.Snapshot()

	dto := NotificationDTO{
		ID:          s.ID.Bytes(),
		Type:        s.Type.String(),
		Title:       s.Title,
		Message:     s.Message,
		RecipientID: s.RecipientID.Bytes(),
		Status:      s.Status.String(),
		Priority:    int(s.Priority),
		Metadata:    datatypes.JSONMap(s.Metadata),
		CreatedAt:   s.CreatedAt,
		SentAt:      s.SentAt,
		ReadAt:      s.ReadAt,

		PendingSince:  s.PendingSince,
		Attempts:      s.Attempts,
		LastAttemptAt: s.LastAttemptAt,
	}
	if s.SenderID != nil {
		raw := s.SenderID.Bytes()
		dto.SenderID = &raw
	}
	if s.Related != nil {
		raw := s.Related.ID.Bytes()
		dto.RelatedKind = s.Related.Kind
		dto.RelatedID = &raw
	}
	return dto
}

func toDomain(dto NotificationDTO) (*notification.Notification, error) {
	id, err := kernel.UUIDFromRaw(dto.ID)
	if err != nil {
		return nil, err
	}
	recipientID, err := kernel.UUIDFromRaw(dto.RecipientID)
	if err != nil {
		return nil, err
	}
	status, err := notification.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	s := notification.Snapshot{
		ID:          id,
		Type:        notification.Type(dto.Type),
		Title:       dto.Title,
		Message:     dto.Message,
		RecipientID: recipientID,
		Status:      status,
		Priority:    notification.Priority(dto.Priority),
		Metadata:    map[string]any(dto.Metadata),
		CreatedAt:   dto.CreatedAt.UTC(),
		SentAt:      utc(dto.SentAt),
		ReadAt:      utc(dto.ReadAt),

		PendingSince:  dto.PendingSince.UTC(),
		Attempts:      dto.Attempts,
		LastAttemptAt: utc(dto.LastAttemptAt),
	}
	if dto.SenderID != nil {
		senderID, senderErr := kernel.UUIDFromRaw(*dto.SenderID)
		if senderErr != nil {
			return nil, senderErr
		}
		s.SenderID = &senderID
	}
	if dto.RelatedID != nil {
		relatedID, relatedErr := kernel.UUIDFromRaw(*dto.RelatedID)
		if relatedErr != nil {
			return nil, relatedErr
		}
		s.Related = &notification.RelatedEntity{Kind: dto.RelatedKind, ID: relatedID}
	}

	return notification.RestoreNotification(s)
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
