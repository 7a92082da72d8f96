package queries

import (
	"context"

	"workorders/internal/core/domain/services"
	"workorders/internal/pkg/errs"

	"gorm.io/gorm"
)

type GetOrderQueryHandler struct {
	db     *gorm.DB
	policy services.AuthorizationPolicy
}

func NewGetOrderQueryHandler(db *gorm.DB) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db, policy: services.NewAuthorizationPolicy()}
}

// Handle returns errs.ObjectNotFoundError for unknown ids and errs.PermissionDeniedError
// when the actor may not view the order.
func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (OrderResponse, error) {
	if err := query.Validate(); err != nil {
		return OrderResponse{}, err
	}

	rows, err := h.db.WithContext(ctx).Raw(selectOrders+`
		WHERE id = ?
	`, query.OrderID().Bytes()).Rows()
	if err != nil {
		return OrderResponse{}, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err = rows.Err(); err != nil {
			return OrderResponse{}, err
		}
		return OrderResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}

	o, err := scanOrder(rows)
	if err != nil {
		return OrderResponse{}, err
	}
	if !h.policy.CanView(query.Actor(), o) {
		return OrderResponse{}, errs.NewPermissionDeniedError("view order")
	}

	return NewOrderResponse(o), nil
}
