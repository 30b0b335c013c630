package webhooklog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	"github.com/schoolpay/schoolpay-backend/pkg/enums"
	"github.com/schoolpay/schoolpay-backend/pkg/pagination"
)

// Outcome stamps the final processing result onto a log row.
type Outcome struct {
	Status           enums.WebhookStatus
	ErrorMessage     *string
	OrderID          *string
	CollectRequestID *string
}

// Repository defines persistence for the webhook audit trail. Rows are
// recorded before processing and marked with the outcome afterwards.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Record(ctx context.Context, log *models.WebhookLog) (*models.WebhookLog, error)
	MarkOutcome(ctx context.Context, id uuid.UUID, outcome Outcome) error
	List(ctx context.Context, params pagination.Params) ([]models.WebhookLog, int64, error)
}
