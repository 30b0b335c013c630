package webhooklog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
	"github.com/schoolpay/schoolpay-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a webhook log repository bound to the provided DB.
func NewRepository(gdb *gorm.DB) Repository {
	return &repository{db: gdb}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Record(ctx context.Context, log *models.WebhookLog) (*models.WebhookLog, error) {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(log).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "recording webhook log")
	}
	return log, nil
}

func (r *repository) MarkOutcome(ctx context.Context, id uuid.UUID, outcome Outcome) error {
	updates := map[string]any{
		"status": outcome.Status,
	}
	if outcome.ErrorMessage != nil {
		updates["error_message"] = *outcome.ErrorMessage
	}
	if outcome.OrderID != nil {
		updates["order_id"] = *outcome.OrderID
	}
	if outcome.CollectRequestID != nil {
		updates["collect_request_id"] = *outcome.CollectRequestID
	}

	result := r.db.WithContext(ctx).
		Model(&models.WebhookLog{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeStorage, result.Error, "marking webhook outcome")
	}
	if result.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "webhook log not found").
			WithDetails(map[string]any{"id": id.String()})
	}
	return nil
}

func (r *repository) List(ctx context.Context, params pagination.Params) ([]models.WebhookLog, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.WebhookLog{}).Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "counting webhook logs")
	}

	var logs []models.WebhookLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&logs).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "listing webhook logs")
	}
	return logs, total, nil
}
