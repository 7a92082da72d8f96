// Package orderrepo persists order aggregates with GORM.
// Every update is conditional on the version the aggregate was loaded at.
package orderrepo

import (
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/order"

	"github.com/google/uuid"
)

// OrderDTO is the row layout of the orders table.
type OrderDTO struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey"`
	ServiceName  string     `gorm:"type:varchar(255);not null"`
	Description  string     `gorm:"type:text"`
	Price        int        `gorm:"not null"`
	Status       string     `gorm:"type:varchar(20);not null;index"`
	ClientID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	ClientGender string     `gorm:"type:varchar(10);index"`
	WorkerID     *uuid.UUID `gorm:"type:uuid;index"`
	CancelReason string     `gorm:"type:text"`
	CreatedAt    time.Time  `gorm:"not null;index;autoCreateTime:false"`
	UpdatedAt    time.Time  `gorm:"not null;autoUpdateTime:false"`
	PaidAt       *time.Time
	CompletedAt  *time.Time
	Version      int64 `gorm:"not null;default:1"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

func fromDomain(o *order.Order) OrderDTO {
	s := o.Snapshot()

	var workerID *uuid.UUID
	if s.WorkerID != nil {
		raw := s.WorkerID.Bytes()
		workerID = &raw
	}

	return OrderDTO{
		ID:           s.ID.Bytes(),
		ServiceName:  s.ServiceName,
		Description:  s.Description,
		Price:        s.Price,
		Status:       s.Status.String(),
		ClientID:     s.ClientID.Bytes(),
		ClientGender: s.ClientGender.String(),
		WorkerID:     workerID,
		CancelReason: s.CancelReason,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		PaidAt:       s.PaidAt,
		CompletedAt:  s.CompletedAt,
		Version:      s.Version,
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromRaw(dto.ID)
	if err != nil {
		return nil, err
	}
	clientID, err := kernel.UUIDFromRaw(dto.ClientID)
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}
	gender, err := kernel.ParseGender(dto.ClientGender)
	if err != nil {
		return nil, err
	}

	var workerID *kernel.UUID
	if dto.WorkerID != nil {
		wID, workerErr := kernel.UUIDFromRaw(*dto.WorkerID)
		if workerErr != nil {
			return nil, workerErr
		}
		workerID = &wID
	}

	return order.RestoreOrder(order.Snapshot{
		ID:           id,
		ServiceName:  dto.ServiceName,
		Description:  dto.Description,
		Price:        dto.Price,
		Status:       status,
		ClientID:     clientID,
		ClientGender: gender,
		WorkerID:     workerID,
		CancelReason: dto.CancelReason,
		CreatedAt:    dto.CreatedAt.UTC(),
		UpdatedAt:    dto.UpdatedAt.UTC(),
		PaidAt:       utc(dto.PaidAt),
		CompletedAt:  utc(dto.CompletedAt),
		Version:      dto.Version,
	})
}

func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}
