package transactions

import (
	"context"

	"github.com/schoolpay/schoolpay-backend/pkg/pagination"
)

// Repository serves the merged order/status read model.
type Repository interface {
	List(ctx context.Context, filter Filter, params pagination.Params, sort Sort) ([]View, int64, error)
	FindByCustomOrderID(ctx context.Context, customOrderID string) (*View, error)
}
