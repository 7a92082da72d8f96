package queries

import (
	"database/sql"
	"time"

	"workorders/internal/core/domain/model/kernel"
	"workorders/internal/core/domain/model/order"

	"github.com/google/uuid"
)

const selectOrders = `
	SELECT
		id,
		service_name,
		description,
		price,
		status,
		client_id,
		client_gender,
		worker_id,
		cancel_reason,
		created_at,
		updated_at,
		paid_at,
		completed_at,
		version
	FROM orders`

// OrderResponse is the read model of an order.
type OrderResponse struct {
	ID           kernel.UUID  `json:"id"`
	ServiceName  string       `json:"service_name"`
	Description  string       `json:"description"`
	Price        int          `json:"price"`
	Status       order.Status `json:"status"`
	ClientID     kernel.UUID  `json:"client_id"`
	WorkerID     *kernel.UUID `json:"worker_id,omitempty"`
	CancelReason string       `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
	PaidAt       *time.Time   `json:"paid_at,omitempty"`
	CompletedAt  *time.Time   `json:"completed_at,omitempty"`
	Version      int64        `json:"version"`
}

// NewOrderResponse projects an aggregate into the read model.
func NewOrderResponse(o *order.Order) OrderResponse {
	s := o.Snapshot()
	return OrderResponse{
		ID:           s.ID,
		ServiceName:  s.ServiceName,
		Description:  s.Description,
		Price:        s.Price,
		Status:       s.Status,
		ClientID:     s.ClientID,
		WorkerID:     s.WorkerID,
		CancelReason: s.CancelReason,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
		PaidAt:       s.PaidAt,
		CompletedAt:  s.CompletedAt,
		Version:      s.Version,
	}
}

// scanOrder reads one row selected with selectOrders back into an aggregate,
// which the handlers need to evaluate the authorization policy.
func scanOrder(rows *sql.Rows) (*order.Order, error) {
	var (
		id, clientID        uuid.UUID
		workerID            uuid.NullUUID
		status, gender      string
		paidAt, completedAt sql.NullTime
		s                   order.Snapshot
	)

	err := rows.Scan(
		&id,
		&s.ServiceName,
		&s.Description,
		&s.Price,
		&status,
		&clientID,
		&gender,
		&workerID,
		&s.CancelReason,
		&s.CreatedAt,
		&s.UpdatedAt,
		&paidAt,
		&completedAt,
		&s.Version,
	)
	if err != nil {
		return nil, err
	}

	if s.ID, err = kernel.UUIDFromRaw(id); err != nil {
		return nil, err
	}
	if s.ClientID, err = kernel.UUIDFromRaw(clientID); err != nil {
		return nil, err
	}
	if s.Status, err = order.ParseStatus(status); err != nil {
		return nil, err
	}
	if s.ClientGender, err = kernel.ParseGender(gender); err != nil {
		return nil, err
	}
	if workerID.Valid {
		wID, workerErr := kernel.UUIDFromRaw(workerID.UUID)
		if workerErr != nil {
			return nil, workerErr
		}
		s.WorkerID = &wID
	}

	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	s.PaidAt = nullTime(paidAt)
	s.CompletedAt = nullTime(completedAt)

	return order.RestoreOrder(s)
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	u := t.Time.UTC()
	return &u
}
