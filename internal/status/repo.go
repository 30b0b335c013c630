package status

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a status repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert inserts the status row or, when one already exists for the order,
// overwrites only the listed columns. updated_at is always refreshed.
func (r *repository) Upsert(ctx context.Context, row *models.OrderStatus, updateColumns []string) error {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	columns := append([]string{}, updateColumns...)
	columns = append(columns, "updated_at")

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns(columns),
		}).
		Create(row).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, err, "upserting order status")
	}
	return nil
}

// CreateIfAbsent inserts a status row unless the order already has one.
// Reports whether a row was written.
func (r *repository) CreateIfAbsent(ctx context.Context, row *models.OrderStatus) (bool, error) {
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "order_id"}},
			DoNothing: true,
		}).
		Create(row)
	if result.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeStorage, result.Error, "creating order status")
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.OrderStatus, error) {
	var row models.OrderStatus
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order status not found").
				WithDetails(map[string]any{"order_id": orderID.String()})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "looking up order status")
	}
	return &row, nil
}
