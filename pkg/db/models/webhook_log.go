package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/schoolpay/schoolpay-backend/pkg/enums"
)

// WebhookLog is the append-only audit record for every inbound gateway
// event. The raw payload is preserved verbatim for replay; only the outcome
// fields are stamped after processing.
type WebhookLog struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType        string              `gorm:"column:event_type;not null"`
	Payload          json.RawMessage     `gorm:"column:payload;type:jsonb;not null"`
	Status           enums.WebhookStatus `gorm:"column:status;not null;default:'PROCESSING'"`
	ErrorMessage     *string             `gorm:"column:error_message"`
	OrderID          *string             `gorm:"column:order_id"`
	CollectRequestID *string             `gorm:"column:collect_request_id"`
	ProcessedAt      time.Time           `gorm:"column:processed_at;autoCreateTime"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (WebhookLog) TableName() string {
	return "webhook_logs"
}
