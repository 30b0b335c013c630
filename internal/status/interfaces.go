package status

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
)

// Repository defines persistence operations for order status rows. One row
// exists per order at most; writes go through the order_id upsert.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, row *models.OrderStatus, updateColumns []string) error
	CreateIfAbsent(ctx context.Context, row *models.OrderStatus) (bool, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.OrderStatus, error)
}
