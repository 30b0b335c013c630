package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
)

// Repository defines persistence operations for payment orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByCustomOrderID(ctx context.Context, customOrderID string) (*models.Order, error)
	FindByCollectRequestID(ctx context.Context, collectRequestID string) (*models.Order, error)
	UpdateGatewayRefs(ctx context.Context, id uuid.UUID, collectRequestID, collectRequestURL string) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindConfirmedWithoutStatusBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}
