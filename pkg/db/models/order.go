package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolpay/schoolpay-backend/pkg/enums"
)

// StudentInfo is copied verbatim from the creation request.
type StudentInfo struct {
	Name  string `gorm:"column:student_name;not null" json:"name"`
	ID    string `gorm:"column:student_id;not null" json:"id"`
	Email string `gorm:"column:student_email;not null" json:"email"`
}

// Order is the local record of a requested payment collection. Core fields
// are immutable after creation; the gateway reference fields are filled in
// by a second write once the gateway confirms the request.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SchoolID          string            `gorm:"column:school_id;not null;index"`
	TrusteeID         string            `gorm:"column:trustee_id;not null"`
	StudentInfo       StudentInfo       `gorm:"embedded"`
	GatewayName       enums.GatewayName `gorm:"column:gateway_name;not null"`
	OrderAmount       decimal.Decimal   `gorm:"column:order_amount;type:numeric(12,2);not null"`
	CustomOrderID     string            `gorm:"column:custom_order_id;not null;uniqueIndex:ux_orders_custom_order_id"`
	CollectRequestID  *string           `gorm:"column:collect_request_id"`
	CollectRequestURL *string           `gorm:"column:collect_request_url"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string {
	return "orders"
}
