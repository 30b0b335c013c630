package transactions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
	"github.com/schoolpay/schoolpay-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds the transaction read repository.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) List(ctx context.Context, filter Filter, params pagination.Params, sort Sort) ([]View, int64, error) {
	query := r.filtered(ctx, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "counting transactions")
	}

	var pageOrders []models.Order
	err := query.
		Select("orders.*").
		Order(sort.clause()).
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&pageOrders).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "listing transactions")
	}

	views, err := r.merge(ctx, pageOrders)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (r *repository) FindByCustomOrderID(ctx context.Context, customOrderID string) (*View, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Where("custom_order_id = ?", customOrderID).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "transaction not found").
				WithDetails(map[string]any{"custom_order_id": customOrderID})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "looking up transaction")
	}

	views, err := r.merge(ctx, []models.Order{order})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// filtered applies every filter clause to an orders query joined with the
// status table. Orders without a status row count as PENDING.
func (r *repository) filtered(ctx context.Context, filter Filter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Joins("LEFT JOIN order_status ON order_status.order_id = orders.id")

	if filter.SchoolID != "" {
		query = query.Where("orders.school_id = ?", filter.SchoolID)
	}
	if filter.Gateway != "" {
		query = query.Where("orders.gateway_name = ?", filter.Gateway)
	}
	if filter.Status != "" {
		query = query.Where("COALESCE(order_status.status, 'PENDING') = ?", filter.Status)
	}
	if filter.OrderAmount.Valid {
		query = query.Where("orders.order_amount = ?", filter.OrderAmount.Decimal)
	}
	if filter.TransactionAmount.Valid {
		query = query.Where("order_status.transaction_amount = ?", filter.TransactionAmount.Decimal)
	}
	if filter.CustomOrderID != "" {
		query = query.Where("orders.custom_order_id = ?", filter.CustomOrderID)
	}
	if filter.CollectRequestID != "" {
		query = query.Where("orders.collect_request_id = ?", filter.CollectRequestID)
	}
	if filter.StartDate != nil {
		query = query.Where("orders.created_at >= ?", *filter.StartDate)
	}
	if filter.EndDate != nil {
		query = query.Where("orders.created_at <= ?", *filter.EndDate)
	}
	return query
}

// merge batch-loads the status rows for a page of orders and folds them
// into views.
func (r *repository) merge(ctx context.Context, pageOrders []models.Order) ([]View, error) {
	views := make([]View, 0, len(pageOrders))
	if len(pageOrders) == 0 {
		return views, nil
	}

	ids := make([]uuid.UUID, 0, len(pageOrders))
	for _, order := range pageOrders {
		ids = append(ids, order.ID)
	}

	var rows []models.OrderStatus
	err := r.db.WithContext(ctx).
		Where("order_id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "loading status rows")
	}

	byOrder := make(map[uuid.UUID]*models.OrderStatus, len(rows))
	for i := range rows {
		byOrder[rows[i].OrderID] = &rows[i]
	}

	for _, order := range pageOrders {
		views = append(views, mergeView(order, byOrder[order.ID]))
	}
	return views, nil
}
