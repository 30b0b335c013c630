package transactions

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	"github.com/schoolpay/schoolpay-backend/pkg/enums"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
)

// Filter narrows the merged transaction listing. Zero values mean "no
// constraint".
type Filter struct {
	SchoolID          string
	Gateway           enums.GatewayName
	Status            enums.PaymentStatus
	OrderAmount       decimal.NullDecimal
	TransactionAmount decimal.NullDecimal
	CustomOrderID     string
	CollectRequestID  string
	StartDate         *time.Time
	EndDate           *time.Time
}

// Validate rejects unknown enum values and inverted date ranges before the
// filter reaches the store.
func (f Filter) Validate() error {
	if f.Gateway != "" && !f.Gateway.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown gateway "+string(f.Gateway))
	}
	if f.Status != "" && !f.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown status "+string(f.Status))
	}
	if f.StartDate != nil && f.EndDate != nil && f.EndDate.Before(*f.StartDate) {
		return pkgerrors.New(pkgerrors.CodeValidation, "end date precedes start date")
	}
	return nil
}

// Sort describes the listing order. Only whitelisted columns are accepted.
type Sort struct {
	By    string
	Desc  bool
	valid bool
}

var sortColumns = map[string]string{
	"created_at":   "orders.created_at",
	"order_amount": "orders.order_amount",
	"payment_time": "order_status.payment_time",
	"status":       "order_status.status",
}

// NormalizeSort resolves user-supplied sort input, defaulting to newest
// first.
func NormalizeSort(by, order string) (Sort, error) {
	if by == "" {
		by = "created_at"
	}
	if _, ok := sortColumns[by]; !ok {
		return Sort{}, pkgerrors.New(pkgerrors.CodeValidation, "unsupported sort field "+by)
	}
	desc := true
	switch strings.ToLower(order) {
	case "", "desc":
	case "asc":
		desc = false
	default:
		return Sort{}, pkgerrors.New(pkgerrors.CodeValidation, "sort order must be asc or desc")
	}
	return Sort{By: by, Desc: desc, valid: true}, nil
}

func (s Sort) clause() string {
	column := sortColumns[s.By]
	if column == "" {
		column = "orders.created_at"
	}
	if s.Desc {
		return column + " DESC"
	}
	return column + " ASC"
}

// View is the merged order/status projection served to dashboards. Orders
// without a status row read as PENDING.
type View struct {
	CollectID         uuid.UUID           `json:"collect_id"`
	SchoolID          string              `json:"school_id"`
	TrusteeID         string              `json:"trustee_id"`
	StudentInfo       models.StudentInfo  `json:"student_info"`
	Gateway           enums.GatewayName   `json:"gateway"`
	OrderAmount       decimal.Decimal     `json:"order_amount"`
	TransactionAmount decimal.NullDecimal `json:"transaction_amount"`
	Status            enums.PaymentStatus `json:"status"`
	CustomOrderID     string              `json:"custom_order_id"`
	PaymentMode       *string             `json:"payment_mode"`
	BankReference     *string             `json:"bank_reference"`
	PaymentMessage    *string             `json:"payment_message"`
	ErrorMessage      *string             `json:"error_message"`
	PaymentTime       *time.Time          `json:"payment_time"`
	CreatedAt         time.Time           `json:"created_at"`
	CollectRequestID  *string             `json:"collect_request_id"`
	CollectRequestURL *string             `json:"collect_request_url"`
}

func mergeView(order models.Order, row *models.OrderStatus) View {
	view := View{
		CollectID:         order.ID,
		SchoolID:          order.SchoolID,
		TrusteeID:         order.TrusteeID,
		StudentInfo:       order.StudentInfo,
		Gateway:           order.GatewayName,
		OrderAmount:       order.OrderAmount,
		Status:            enums.PaymentStatusPending,
		CustomOrderID:     order.CustomOrderID,
		CreatedAt:         order.CreatedAt,
		CollectRequestID:  order.CollectRequestID,
		CollectRequestURL: order.CollectRequestURL,
	}
	if row != nil {
		view.TransactionAmount = row.TransactionAmount
		view.Status = row.Status
		view.PaymentMode = row.PaymentMode
		view.BankReference = row.BankReference
		view.PaymentMessage = row.PaymentMessage
		view.ErrorMessage = row.ErrorMessage
		view.PaymentTime = row.PaymentTime
	}
	return view
}
