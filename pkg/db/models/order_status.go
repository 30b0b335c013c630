package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolpay/schoolpay-backend/pkg/enums"
)

// OrderStatus holds the current settlement outcome for an order. At most one
// row exists per order; the unique index on order_id backs the upsert.
type OrderStatus struct {
	ID                uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID           `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_status_order_id"`
	OrderAmount       decimal.Decimal     `gorm:"column:order_amount;type:numeric(12,2);not null"`
	TransactionAmount decimal.NullDecimal `gorm:"column:transaction_amount;type:numeric(12,2)"`
	Status            enums.PaymentStatus `gorm:"column:status;not null;default:'PENDING';index"`
	PaymentMode       *string             `gorm:"column:payment_mode"`
	PaymentDetails    *string             `gorm:"column:payment_details"`
	BankReference     *string             `gorm:"column:bank_reference"`
	PaymentMessage    *string             `gorm:"column:payment_message"`
	ErrorMessage      *string             `gorm:"column:error_message"`
	PaymentTime       *time.Time          `gorm:"column:payment_time"`
	CreatedAt         time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (OrderStatus) TableName() string {
	return "order_status"
}
