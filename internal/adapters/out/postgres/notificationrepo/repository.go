package notificationrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/notification"
	"workorders/internal/pkg/errs"

	"gorm.io/gorm"
)

const maxCASAttempts = 5

// GormNotificationStore implements ports.NotificationStore using GORM.
type GormNotificationStore struct {
	db  *gorm.DB
	now func() time.Time
}

func NewGormNotificationStore(db *gorm.DB) *GormNotificationStore {
	return &GormNotificationStore{db: db, now: time.Now}
}

func (s *GormNotificationStore) Create(ctx context.Context, n *notification.Notification) (kernel.UUID, error) {
	if err := n.Validate(); err != nil {
		return kernel.UUID{}, err
	}

	dto := fromDomain(n)
	if err := s.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return kernel.UUID{}, err
	}
	return n.ID(), nil
}

func (s *GormNotificationStore) Get(ctx context.Context, id kernel.UUID) (*notification.Notification, error) {
	dto, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return toDomain(dto)
}

func (s *GormNotificationStore) MarkSent(ctx context.Context, id kernel.UUID) (bool, error) {
	return s.mark(ctx, id, func(n *notification.Notification) (bool, error) {
		return n.MarkSent(s.now())
	})
}

func (s *GormNotificationStore) MarkRead(ctx context.Context, id kernel.UUID) (bool, error) {
	return s.mark(ctx, id, func(n *notification.Notification) (bool, error) {
		return n.MarkRead(s.now())
	})
}

func (s *GormNotificationStore) MarkFailed(ctx context.Context, id kernel.UUID) (bool, error) {
	return s.mark(ctx, id, func(n *notification.Notification) (bool, error) {
		return n.MarkFailed()
	})
}

func (s *GormNotificationStore) Resend(ctx context.Context, id kernel.UUID) (*notification.Notification, error) {
	var resent *notification.Notification
	_, err := s.mark(ctx, id, func(n *notification.Notification) (bool, error) {
		n.Resend(s.now())
		resent = n
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	return resent, nil
}

func (s *GormNotificationStore) RecordAttempt(ctx context.Context, id kernel.UUID) (bool, error) {
	return s.mark(ctx, id, func(n *notification.Notification) (bool, error) {
		return n.RecordAttempt(s.now()), nil
	})
}

// GetPending puts never attempted records first and then the least recently attempted ones,
// so records whose recipients stay offline rotate to the back instead of filling every batch.
func (s *GormNotificationStore) GetPending(
	ctx context.Context,
	before time.Time,
	limit int,
) ([]*notification.Notification, error) {
	var dtos []NotificationDTO
	err := s.db.WithContext(ctx).
		Where("status = ? AND pending_since < ?", notification.Pending.String(), before).
		Where("(last_attempt_at IS NULL OR last_attempt_at < ?)", before).
		Order("last_attempt_at NULLS FIRST, pending_since").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}

	result := make([]*notification.Notification, 0, len(dtos))
	for _, dto := range dtos {
		n, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}

// mark loads the record, lets apply change it and writes the result only if the stored status and
// attempt count are still the ones apply saw. A lost race reloads and applies again against the
// winner's state.
func (s *GormNotificationStore) mark(
	ctx context.Context,
	id kernel.UUID,
	apply func(n *notification.Notification) (bool, error),
) (bool, error) {
	for range maxCASAttempts {
		current, err := s.load(ctx, id)
		if err != nil {
			return false, err
		}
		n, err := toDomain(current)
		if err != nil {
			return false, err
		}

		changed, err := apply(n)
		if err != nil || !changed {
			return false, err
		}

		next := fromDomain(n)
		result := s.db.WithContext(ctx).
			Model(&NotificationDTO{}).
			Where("id = ? AND status = ? AND attempts = ?", current.ID, current.Status, current.Attempts).
			Updates(map[string]any{
				"status":          next.Status,
				"sent_at":         next.SentAt,
				"read_at":         next.ReadAt,
				"pending_since":   next.PendingSince,
				"attempts":        next.Attempts,
				"last_attempt_at": next.LastAttemptAt,
			})
		if result.Error != nil {
			return false, result.Error
		}
		if result.RowsAffected == 1 {
			return true, nil
		}
	}
	return false, fmt.Errorf("notification %s changed %d times while marking: %w", id, maxCASAttempts, errs.ErrVersionConflict)
}

func (s *GormNotificationStore) load(ctx context.Context, id kernel.UUID) (NotificationDTO, error) {
	if err := id.Validate(); err != nil {
		return NotificationDTO{}, err
	}

	var dto NotificationDTO
	if err := s.db.WithContext(ctx).First(&dto, "id = ?", id.Bytes()).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return NotificationDTO{}, errs.NewObjectNotFoundError("notification", id.String())
		}
		return NotificationDTO{}, err
	}
	return dto, nil
}
