package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/schoolpay-backend/pkg/db"
	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		if db.IsUniqueViolation(err, "ux_orders_custom_order_id") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDuplicate, err, "order already exists").
				WithDetails(map[string]any{"custom_order_id": order.CustomOrderID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "creating order")
	}
	return order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, mapLookupErr(err, "id", id.String())
	}
	return &order, nil
}

func (r *repository) FindByCustomOrderID(ctx context.Context, customOrderID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("custom_order_id = ?", customOrderID).
		First(&order).Error
	if err != nil {
		return nil, mapLookupErr(err, "custom_order_id", customOrderID)
	}
	return &order, nil
}

func (r *repository) FindByCollectRequestID(ctx context.Context, collectRequestID string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("collect_request_id = ?", collectRequestID).
		First(&order).Error
	if err != nil {
		return nil, mapLookupErr(err, "collect_request_id", collectRequestID)
	}
	return &order, nil
}

func (r *repository) UpdateGatewayRefs(ctx context.Context, id uuid.UUID, collectRequestID, collectRequestURL string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"collect_request_id":  collectRequestID,
			"collect_request_url": collectRequestURL,
		})
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, result.Error, "updating gateway refs")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").
			WithDetails(map[string]any{"id": id.String()})
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	if err := r.db.WithContext(ctx).Delete(&models.Order{}, "id = ?", id).Error; err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "deleting order")
	}
	return nil
}

// FindConfirmedWithoutStatusBefore returns orders that reached the gateway
// but never got a status row, older than the cutoff. Used by the sweep job.
func (r *repository) FindConfirmedWithoutStatusBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var result []models.Order
	err := r.db.WithContext(ctx).
		Joins("LEFT JOIN order_status ON order_status.order_id = orders.id").
		Where("orders.collect_request_id IS NOT NULL").
		Where("order_status.id IS NULL").
		Where("orders.created_at < ?", cutoff).
		Order("orders.created_at ASC").
		Limit(limit).
		Find(&result).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "listing orders without status")
	}
	return result, nil
}

func mapLookupErr(err error, field, value string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found").
			WithDetails(map[string]any{field: value})
	}
	return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "looking up order")
}
