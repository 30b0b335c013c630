package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/schoolpay/schoolpay-backend/internal/orders"
	"github.com/schoolpay/schoolpay-backend/internal/status"
	"github.com/schoolpay/schoolpay-backend/internal/webhooklog"
	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	"github.com/schoolpay/schoolpay-backend/pkg/enums"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
	"github.com/schoolpay/schoolpay-backend/pkg/gateway"
	"github.com/schoolpay/schoolpay-backend/pkg/logger"
	"github.com/schoolpay/schoolpay-backend/pkg/metrics"
	redislib "github.com/schoolpay/schoolpay-backend/pkg/redis"
)

const (
	defaultOrderLockTTL  = 30 * time.Second
	defaultOrderLockWait = 5 * time.Second
	orderLockInterval    = 50 * time.Millisecond

	webhookEventType = "payment_webhook"

	invalidWebhookMessage = "Invalid webhook payload: Missing order_info or order_id"
)

// simulatedMethodNames maps payment method ids to their display names.
var simulatedMethodNames = map[string]string{
	"credit_card": "Credit Card (Simulated)",
	"debit_card":  "Debit Card (Simulated)",
	"net_banking": "Net Banking (Simulated)",
	"upi":         "UPI (Simulated)",
	"wallet":      "Digital Wallet (Simulated)",
}

type gatewayClient interface {
	CreateCollectRequest(ctx context.Context, params gateway.CreateCollectParams) (*gateway.CollectRequestResult, error)
}

// Service reconciles local order state against gateway events.
type Service interface {
	CreatePayment(ctx context.Context, input CreatePaymentInput) (*CreatePaymentResult, error)
	SimulatePayment(ctx context.Context, input SimulatePaymentInput) (*SimulatePaymentResult, error)
	IngestWebhook(ctx context.Context, payload json.RawMessage) (*models.OrderStatus, error)
	UpdateStatusManually(ctx context.Context, input ManualUpdateInput) (*models.OrderStatus, error)
}

// Options tunes the engine beyond its stores.
type Options struct {
	// CallbackURL is used when the create request does not carry one.
	CallbackURL string
	Metrics     *metrics.ReconcileMetrics
	LockTTL     time.Duration
	LockWait    time.Duration
}

type service struct {
	orders   orders.Repository
	statuses status.Repository
	logs     webhooklog.Repository
	gateway  gatewayClient
	locks    redislib.LockStore
	logg     *logger.Logger
	metrics  *metrics.ReconcileMetrics

	callbackURL string
	lockTTL     time.Duration
	lockWait    time.Duration
}

// NewService builds the reconciliation engine with the required dependencies.
func NewService(
	ordersRepo orders.Repository,
	statusRepo status.Repository,
	logRepo webhooklog.Repository,
	gatewayClient gatewayClient,
	locks redislib.LockStore,
	logg *logger.Logger,
	opts Options,
) (Service, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if statusRepo == nil {
		return nil, fmt.Errorf("status repository is required")
	}
	if logRepo == nil {
		return nil, fmt.Errorf("webhook log repository is required")
	}
	if gatewayClient == nil {
		return nil, fmt.Errorf("gateway client is required")
	}
	if locks == nil {
		return nil, fmt.Errorf("lock store is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}

	lockTTL := opts.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultOrderLockTTL
	}
	lockWait := opts.LockWait
	if lockWait <= 0 {
		lockWait = defaultOrderLockWait
	}

	return &service{
		orders:      ordersRepo,
		statuses:    statusRepo,
		logs:        logRepo,
		gateway:     gatewayClient,
		locks:       locks,
		logg:        logg,
		metrics:     opts.Metrics,
		callbackURL: opts.CallbackURL,
		lockTTL:     lockTTL,
		lockWait:    lockWait,
	}, nil
}

// CreatePayment opens a collect request at the gateway after recording the
// order locally. A gateway failure deletes the local order again so no
// half-created request survives.
func (s *service) CreatePayment(ctx context.Context, input CreatePaymentInput) (*CreatePaymentResult, error) {
	if err := validateCreateInput(input.SchoolID, input.TrusteeID, input.StudentInfo, input.Amount); err != nil {
		return nil, err
	}

	ctx = s.logg.WithSchoolID(ctx, input.SchoolID)

	order := &models.Order{
		SchoolID:      input.SchoolID,
		TrusteeID:     input.TrusteeID,
		StudentInfo:   input.StudentInfo,
		GatewayName:   enums.GatewayCashfree,
		OrderAmount:   input.Amount,
		CustomOrderID: newCustomOrderID("ORD"),
	}
	order, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithCustomOrderID(ctx, order.CustomOrderID)
	s.logg.Info(ctx, "order created, opening collect request")

	callback := input.CallbackURL
	if callback == "" {
		callback = s.callbackURL
	}

	started := time.Now()
	confirmed, err := s.gateway.CreateCollectRequest(ctx, gateway.CreateCollectParams{
		SchoolID:    input.SchoolID,
		Amount:      input.Amount,
		CallbackURL: callback,
	})
	if err != nil {
		s.observeGateway("create_collect_request", "failure", started)
		s.logg.Error(ctx, "collect request failed, rolling back order", err)
		if delErr := s.orders.Delete(ctx, order.ID); delErr != nil {
			s.logg.Error(ctx, "compensating order delete failed", delErr)
			return nil, multierr.Append(err, delErr)
		}
		return nil, err
	}
	s.observeGateway("create_collect_request", "success", started)

	if err := s.orders.UpdateGatewayRefs(ctx, order.ID, confirmed.CollectRequestID, confirmed.CollectRequestURL); err != nil {
		return nil, err
	}

	if _, err := s.statuses.CreateIfAbsent(ctx, &models.OrderStatus{
		OrderID:     order.ID,
		OrderAmount: input.Amount,
		Status:      enums.PaymentStatusPending,
	}); err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "collect request confirmed")
	return &CreatePaymentResult{
		CollectID:        order.ID,
		CollectRequestID: confirmed.CollectRequestID,
		PaymentURL:       confirmed.CollectRequestURL,
		CustomOrderID:    order.CustomOrderID,
		OrderAmount:      input.Amount,
	}, nil
}

// SimulatePayment records a synthesized transaction without touching the
// gateway. Useful for dashboard demos and load tests.
func (s *service) SimulatePayment(ctx context.Context, input SimulatePaymentInput) (*SimulatePaymentResult, error) {
	if err := validateCreateInput(input.SchoolID, input.TrusteeID, input.StudentInfo, input.Amount); err != nil {
		return nil, err
	}

	outcome := input.PaymentStatus
	if outcome == "" {
		outcome = enums.PaymentStatusSuccess
	}
	if !outcome.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid payment status %q", input.PaymentStatus))
	}

	method := input.PaymentMethod
	if method == "" {
		method = "credit_card"
	}
	methodName, ok := simulatedMethodNames[method]
	if !ok {
		methodName = simulatedMethodNames["credit_card"]
	}

	now := time.Now()
	millis := now.UnixMilli()

	collectRequestID := fmt.Sprintf("SIM_REQ_%d", millis)
	collectRequestURL := "#"
	order := &models.Order{
		SchoolID:          input.SchoolID,
		TrusteeID:         input.TrusteeID,
		StudentInfo:       input.StudentInfo,
		GatewayName:       enums.GatewaySimulation,
		OrderAmount:       input.Amount,
		CustomOrderID:     newCustomOrderID("SIM"),
		CollectRequestID:  &collectRequestID,
		CollectRequestURL: &collectRequestURL,
	}
	order, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, err
	}

	details := fmt.Sprintf("Simulated %s payment for testing purposes", method)
	bankReference := fmt.Sprintf("SIM_REF_%d", millis)
	row := &models.OrderStatus{
		OrderID:        order.ID,
		OrderAmount:    input.Amount,
		Status:         outcome,
		PaymentMode:    &methodName,
		PaymentDetails: &details,
		BankReference:  &bankReference,
	}

	var paymentMessage string
	var errorMessage *string
	switch outcome {
	case enums.PaymentStatusSuccess:
		paymentMessage = "Payment simulated successfully"
		row.TransactionAmount = decimal.NewNullDecimal(input.Amount)
		row.PaymentTime = &now
	case enums.PaymentStatusPending:
		paymentMessage = "Payment is being processed"
	case enums.PaymentStatusFailed:
		paymentMessage = "Payment simulation failed"
		failure := "Simulated payment failure for testing"
		errorMessage = &failure
	}
	row.PaymentMessage = &paymentMessage
	row.ErrorMessage = errorMessage

	if _, err := s.statuses.CreateIfAbsent(ctx, row); err != nil {
		return nil, err
	}

	ctx = s.logg.WithCustomOrderID(ctx, order.CustomOrderID)
	s.logg.Info(ctx, "payment simulated")

	return &SimulatePaymentResult{
		CollectID:        order.ID,
		CollectRequestID: collectRequestID,
		PaymentURL:       collectRequestURL,
		CustomOrderID:    order.CustomOrderID,
		Status:           outcome,
		PaymentMethod:    methodName,
		TransactionID:    fmt.Sprintf("SIM_TXN_%d", millis),
		Amount:           input.Amount,
		PaymentMessage:   paymentMessage,
		ErrorMessage:     errorMessage,
	}, nil
}

// IngestWebhook applies a gateway notification to the order's status row.
// The raw payload is logged before any validation so every delivery leaves
// an audit trail, valid or not.
func (s *service) IngestWebhook(ctx context.Context, payload json.RawMessage) (*models.OrderStatus, error) {
	event, parsed := parseWebhookEvent(payload)

	logRow := &models.WebhookLog{
		EventType: webhookEventType,
		Payload:   payload,
		Status:    enums.WebhookStatusProcessing,
	}
	if parsed && event.OrderInfo != nil && event.OrderInfo.OrderID != "" {
		logRow.OrderID = &event.OrderInfo.OrderID
	}
	logRow, logErr := s.logs.Record(ctx, logRow)
	if logErr != nil {
		// reconciliation still proceeds; the audit trail is best-effort
		s.logg.Error(ctx, "recording webhook log failed", logErr)
		logRow = nil
	}

	if !parsed || event.OrderInfo == nil || event.OrderInfo.OrderID == "" {
		s.markWebhookFailed(ctx, logRow, invalidWebhookMessage)
		s.countWebhook("invalid")
		return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidWebhookMessage)
	}

	info := event.OrderInfo
	ctx = s.logg.WithCustomOrderID(ctx, info.OrderID)

	order, err := s.orders.FindByCustomOrderID(ctx, info.OrderID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			message := fmt.Sprintf("Transaction with ID %s not found", info.OrderID)
			s.markWebhookFailed(ctx, logRow, message)
			s.countWebhook("unmatched")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, message)
		}
		s.markWebhookFailed(ctx, logRow, err.Error())
		s.countWebhook("failure")
		return nil, err
	}

	newStatus := enums.PaymentStatusFailed
	if event.Status == 200 {
		newStatus = enums.PaymentStatusSuccess
	}

	unlock, err := s.lockOrder(ctx, order.ID)
	if err != nil {
		s.markWebhookFailed(ctx, logRow, err.Error())
		s.countWebhook("failure")
		return nil, err
	}
	defer unlock()

	if err := s.guardTransition(ctx, order.ID, newStatus); err != nil {
		s.markWebhookFailed(ctx, logRow, err.Error())
		s.countWebhook("conflict")
		return nil, err
	}

	now := time.Now()
	row := &models.OrderStatus{
		OrderID:           order.ID,
		OrderAmount:       order.OrderAmount,
		TransactionAmount: info.TransactionAmount,
		Status:            newStatus,
		PaymentMode:       info.PaymentMethod,
		PaymentDetails:    info.PaymentDetails,
		BankReference:     info.BankReference,
		PaymentMessage:    info.PaymentMessage,
		PaymentTime:       &now,
	}
	if newStatus == enums.PaymentStatusFailed {
		row.ErrorMessage = info.ErrorMessage
	}
	err = s.statuses.Upsert(ctx, row, []string{
		"status", "transaction_amount", "payment_mode", "payment_details",
		"bank_reference", "payment_message", "payment_time", "error_message",
	})
	if err != nil {
		s.markWebhookFailed(ctx, logRow, err.Error())
		s.countWebhook("failure")
		return nil, err
	}

	if logRow != nil {
		outcome := webhooklog.Outcome{Status: enums.WebhookStatusSuccess}
		if order.CollectRequestID != nil {
			outcome.CollectRequestID = order.CollectRequestID
		}
		if err := s.logs.MarkOutcome(ctx, logRow.ID, outcome); err != nil {
			s.logg.Error(ctx, "marking webhook log failed", err)
		}
	}

	s.countWebhook("success")
	s.logg.Info(ctx, "webhook applied")

	return s.statuses.FindByOrderID(ctx, order.ID)
}

// UpdateStatusManually lets an operator correct the status row for an order
// identified by its public custom order id.
func (s *service) UpdateStatusManually(ctx context.Context, input ManualUpdateInput) (*models.OrderStatus, error) {
	if strings.TrimSpace(input.TransactionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	newStatus, err := enums.ParsePaymentStatus(strings.ToUpper(strings.TrimSpace(input.Status)))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid status %q", input.Status))
	}

	ctx = s.logg.WithCustomOrderID(ctx, input.TransactionID)

	order, err := s.orders.FindByCustomOrderID(ctx, input.TransactionID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound,
				fmt.Sprintf("Transaction with ID %s not found", input.TransactionID))
		}
		return nil, err
	}

	unlock, err := s.lockOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.guardTransition(ctx, order.ID, newStatus); err != nil {
		return nil, err
	}

	row := &models.OrderStatus{
		OrderID:     order.ID,
		OrderAmount: order.OrderAmount,
		Status:      newStatus,
	}
	columns := []string{"status"}
	if input.PaymentMethod != nil {
		row.PaymentMode = input.PaymentMethod
		columns = append(columns, "payment_mode")
	}
	if input.BankReference != nil {
		row.BankReference = input.BankReference
		columns = append(columns, "bank_reference")
	}

	if err := s.statuses.Upsert(ctx, row, columns); err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "status updated manually")
	return s.statuses.FindByOrderID(ctx, order.ID)
}

// guardTransition enforces terminal stickiness: a settled order only accepts
// a reassertion of the same terminal value.
func (s *service) guardTransition(ctx context.Context, orderID uuid.UUID, next enums.PaymentStatus) error {
	existing, err := s.statuses.FindByOrderID(ctx, orderID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return nil
		}
		return err
	}
	if existing.Status.IsTerminal() && existing.Status != next {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order already settled as %s", existing.Status)).
			WithDetails(map[string]any{
				"current":   existing.Status.String(),
				"requested": next.String(),
			})
	}
	return nil
}

// lockOrder serializes status writes per order across processes.
func (s *service) lockOrder(ctx context.Context, orderID uuid.UUID) (func(), error) {
	lock, err := redislib.NewLock(s.locks, s.locks.LockKey("order", orderID.String()), s.lockTTL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building order lock")
	}
	acquired, err := lock.AcquireWait(ctx, s.lockWait, orderLockInterval)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeStorage, err, "acquiring order lock")
	}
	if !acquired {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order update already in progress").
			WithDetails(map[string]any{"order_id": orderID.String()})
	}
	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "releasing order lock failed", err)
		}
	}, nil
}

func (s *service) markWebhookFailed(ctx context.Context, logRow *models.WebhookLog, message string) {
	if logRow == nil {
		return
	}
	outcome := webhooklog.Outcome{
		Status:       enums.WebhookStatusFailed,
		ErrorMessage: &message,
	}
	if err := s.logs.MarkOutcome(ctx, logRow.ID, outcome); err != nil {
		s.logg.Error(ctx, "marking webhook log failed", err)
	}
}

func (s *service) countWebhook(outcome string) {
	if s.metrics != nil {
		s.metrics.IncWebhook(outcome)
	}
}

func (s *service) observeGateway(operation, outcome string, started time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveGatewayCall(operation, outcome, time.Since(started))
	}
}

func validateCreateInput(schoolID, trusteeID string, student models.StudentInfo, amount decimal.Decimal) error {
	switch {
	case strings.TrimSpace(schoolID) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "school_id is required")
	case strings.TrimSpace(trusteeID) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "trustee_id is required")
	case strings.TrimSpace(student.Name) == "" || strings.TrimSpace(student.ID) == "" || strings.TrimSpace(student.Email) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "student_info requires name, id and email")
	case !amount.IsPositive():
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}
	return nil
}
