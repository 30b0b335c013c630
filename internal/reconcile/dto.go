package reconcile

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	"github.com/schoolpay/schoolpay-backend/pkg/enums"
)

// CreatePaymentInput carries the data needed to open a collect request.
type CreatePaymentInput struct {
	SchoolID    string
	TrusteeID   string
	StudentInfo models.StudentInfo
	Amount      decimal.Decimal
	CallbackURL string
}

// CreatePaymentResult is returned once the gateway confirmed the request
// and the PENDING status row exists.
type CreatePaymentResult struct {
	CollectID        uuid.UUID       `json:"collect_id"`
	CollectRequestID string          `json:"collect_request_id"`
	PaymentURL       string          `json:"payment_url"`
	CustomOrderID    string          `json:"custom_order_id"`
	OrderAmount      decimal.Decimal `json:"order_amount"`
}

// SimulatePaymentInput mirrors the create input plus the forced outcome.
type SimulatePaymentInput struct {
	SchoolID      string
	TrusteeID     string
	StudentInfo   models.StudentInfo
	Amount        decimal.Decimal
	PaymentStatus enums.PaymentStatus
	PaymentMethod string
}

// SimulatePaymentResult reports the synthesized transaction.
type SimulatePaymentResult struct {
	CollectID        uuid.UUID           `json:"collect_id"`
	CollectRequestID string              `json:"collect_request_id"`
	PaymentURL       string              `json:"payment_url"`
	CustomOrderID    string              `json:"custom_order_id"`
	Status           enums.PaymentStatus `json:"status"`
	PaymentMethod    string              `json:"payment_method"`
	TransactionID    string              `json:"transaction_id"`
	Amount           decimal.Decimal     `json:"amount"`
	PaymentMessage   string              `json:"payment_message"`
	ErrorMessage     *string             `json:"error_message,omitempty"`
}

// webhookEvent is the parsed shape of an inbound gateway notification.
// Unknown fields are ignored; the raw payload is preserved in the audit log.
type webhookEvent struct {
	Status    int               `json:"status"`
	OrderInfo *webhookOrderInfo `json:"order_info"`
}

type webhookOrderInfo struct {
	OrderID           string              `json:"order_id"`
	OrderAmount       decimal.NullDecimal `json:"order_amount"`
	TransactionAmount decimal.NullDecimal `json:"transaction_amount"`
	PaymentMethod     *string             `json:"payment_method"`
	PaymentDetails    *string             `json:"payment_details"`
	BankReference     *string             `json:"bank_reference"`
	PaymentMessage    *string             `json:"payment_message"`
	ErrorMessage      *string             `json:"error_message"`
}

func parseWebhookEvent(payload json.RawMessage) (*webhookEvent, bool) {
	var event webhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, false
	}
	return &event, true
}

// ManualUpdateInput carries a privileged manual status correction keyed by
// the public custom order id.
type ManualUpdateInput struct {
	TransactionID string
	Status        string
	PaymentMethod *string
	BankReference *string
}
