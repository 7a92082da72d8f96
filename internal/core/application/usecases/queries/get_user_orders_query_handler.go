package queries

import (
	"context"
	"strings"

	"workorders/internal/core/domain/model/user"
	"workorders/internal/pkg/errs"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type GetUserOrdersQueryHandler struct {
	db *gorm.DB
}

func NewGetUserOrdersQueryHandler(db *gorm.DB) GetUserOrdersQueryHandler {
	return GetUserOrdersQueryHandler{db: db}
}

// Handle scopes the listing by role. A worker without a gender matches no client and gets an empty list.
func (h GetUserOrdersQueryHandler) Handle(ctx context.Context, query GetUserOrdersQuery) ([]OrderResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var (
		conditions []string
		args       []any
	)

	actor := query.Actor()
	switch actor.Role() {
	case user.Client:
		conditions = append(conditions, "client_id = ?")
		args = append(args, actor.ID().Bytes())
	case user.Worker:
		if !actor.Gender().IsSet() {
			return []OrderResponse{}, nil
		}
		conditions = append(conditions, "client_gender = ?")
		args = append(args, actor.Gender().String())
	case user.Admin:
	case user.UnknownRole:
		return nil, errs.NewPermissionDeniedError("list orders")
	}

	if statuses := query.Statuses(); len(statuses) > 0 {
		names := make([]string, 0, len(statuses))
		for _, s := range statuses {
			names = append(names, s.String())
		}
		conditions = append(conditions, "status = ANY(?)")
		args = append(args, pq.Array(names))
	}

	sql := selectOrders
	if len(conditions) > 0 {
		sql += "\n\tWHERE " + strings.Join(conditions, " AND ")
	}
	sql += "\n\tORDER BY created_at DESC, id DESC\n\tLIMIT ?"
	args = append(args, query.Limit())

	rows, err := h.db.WithContext(ctx).Raw(sql, args...).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]OrderResponse, 0)
	for rows.Next() {
		o, scanErr := scanOrder(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		orders = append(orders, NewOrderResponse(o))
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}
