package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/schoolpay/schoolpay-backend/internal/orders"
	"github.com/schoolpay/schoolpay-backend/internal/status"
	"github.com/schoolpay/schoolpay-backend/internal/webhooklog"
	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	"github.com/schoolpay/schoolpay-backend/pkg/enums"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
	"github.com/schoolpay/schoolpay-backend/pkg/gateway"
	"github.com/schoolpay/schoolpay-backend/pkg/logger"
	"github.com/schoolpay/schoolpay-backend/pkg/pagination"
)

// ---- stubs ----

type stubOrders struct {
	mu     sync.Mutex
	byID   map[uuid.UUID]*models.Order
	failOn string
}

func newStubOrders() *stubOrders {
	return &stubOrders{byID: map[uuid.UUID]*models.Order{}}
}

func (s *stubOrders) WithTx(*gorm.DB) orders.Repository { return s }

func (s *stubOrders) Create(_ context.Context, order *models.Order) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "create" {
		return nil, pkgerrors.New(pkgerrors.CodeStorage, "creating order")
	}
	for _, existing := range s.byID {
		if existing.CustomOrderID == order.CustomOrderID {
			return nil, pkgerrors.New(pkgerrors.CodeDuplicate, "order already exists")
		}
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	clone := *order
	s.byID[order.ID] = &clone
	return order, nil
}

func (s *stubOrders) FindByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[id]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	clone := *order
	return &clone, nil
}

func (s *stubOrders) FindByCustomOrderID(_ context.Context, customOrderID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.byID {
		if order.CustomOrderID == customOrderID {
			clone := *order
			return &clone, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrders) FindByCollectRequestID(_ context.Context, collectRequestID string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.byID {
		if order.CollectRequestID != nil && *order.CollectRequestID == collectRequestID {
			clone := *order
			return &clone, nil
		}
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrders) UpdateGatewayRefs(_ context.Context, id uuid.UUID, collectRequestID, collectRequestURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	order.CollectRequestID = &collectRequestID
	order.CollectRequestURL = &collectRequestURL
	return nil
}

func (s *stubOrders) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "delete" {
		return pkgerrors.New(pkgerrors.CodeStorage, "deleting order")
	}
	delete(s.byID, id)
	return nil
}

func (s *stubOrders) FindConfirmedWithoutStatusBefore(context.Context, time.Time, int) ([]models.Order, error) {
	return nil, nil
}

func (s *stubOrders) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

type stubStatuses struct {
	mu      sync.Mutex
	byOrder map[uuid.UUID]*models.OrderStatus
}

func newStubStatuses() *stubStatuses {
	return &stubStatuses{byOrder: map[uuid.UUID]*models.OrderStatus{}}
}

func (s *stubStatuses) WithTx(*gorm.DB) status.Repository { return s }

func (s *stubStatuses) Upsert(_ context.Context, row *models.OrderStatus, updateColumns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.byOrder[row.OrderID]
	if !ok {
		if row.ID == uuid.Nil {
			row.ID = uuid.New()
		}
		clone := *row
		s.byOrder[row.OrderID] = &clone
		return nil
	}
	for _, column := range updateColumns {
		switch column {
		case "status":
			existing.Status = row.Status
		case "transaction_amount":
			existing.TransactionAmount = row.TransactionAmount
		case "payment_mode":
			existing.PaymentMode = row.PaymentMode
		case "payment_details":
			existing.PaymentDetails = row.PaymentDetails
		case "bank_reference":
			existing.BankReference = row.BankReference
		case "payment_message":
			existing.PaymentMessage = row.PaymentMessage
		case "payment_time":
			existing.PaymentTime = row.PaymentTime
		case "error_message":
			existing.ErrorMessage = row.ErrorMessage
		}
	}
	return nil
}

func (s *stubStatuses) CreateIfAbsent(_ context.Context, row *models.OrderStatus) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byOrder[row.OrderID]; ok {
		return false, nil
	}
	if row.ID == uuid.Nil {
		row.ID = uuid.New()
	}
	clone := *row
	s.byOrder[row.OrderID] = &clone
	return true, nil
}

func (s *stubStatuses) FindByOrderID(_ context.Context, orderID uuid.UUID) (*models.OrderStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.byOrder[orderID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order status not found")
	}
	clone := *row
	return &clone, nil
}

func (s *stubStatuses) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byOrder)
}

type stubLogs struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*models.WebhookLog
	fail bool
}

func newStubLogs() *stubLogs {
	return &stubLogs{rows: map[uuid.UUID]*models.WebhookLog{}}
}

func (s *stubLogs) WithTx(*gorm.DB) webhooklog.Repository { return s }

func (s *stubLogs) Record(_ context.Context, log *models.WebhookLog) (*models.WebhookLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail {
		return nil, pkgerrors.New(pkgerrors.CodeStorage, "recording webhook log")
	}
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	clone := *log
	s.rows[log.ID] = &clone
	return log, nil
}

func (s *stubLogs) MarkOutcome(_ context.Context, id uuid.UUID, outcome webhooklog.Outcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.rows[id]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeNotFound, "webhook log not found")
	}
	row.Status = outcome.Status
	row.ErrorMessage = outcome.ErrorMessage
	if outcome.OrderID != nil {
		row.OrderID = outcome.OrderID
	}
	if outcome.CollectRequestID != nil {
		row.CollectRequestID = outcome.CollectRequestID
	}
	return nil
}

func (s *stubLogs) List(context.Context, pagination.Params) ([]models.WebhookLog, int64, error) {
	return nil, 0, nil
}

func (s *stubLogs) single(t *testing.T) *models.WebhookLog {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.Len(t, s.rows, 1)
	for _, row := range s.rows {
		clone := *row
		return &clone
	}
	return nil
}

type stubGateway struct {
	mu     sync.Mutex
	result *gateway.CollectRequestResult
	err    error
	calls  int
}

func (s *stubGateway) CreateCollectRequest(context.Context, gateway.CreateCollectParams) (*gateway.CollectRequestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type fakeLockStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newFakeLockStore() *fakeLockStore {
	return &fakeLockStore{keys: map[string]string{}}
}

func (f *fakeLockStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.keys[key]; exists {
		return false, nil
	}
	f.keys[key] = value.(string)
	return true, nil
}

func (f *fakeLockStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	value, exists := f.keys[key]
	if !exists {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeLockStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		delete(f.keys, key)
	}
	return nil
}

func (f *fakeLockStore) LockKey(parts ...string) string {
	out := "sp:lock"
	for _, part := range parts {
		out += ":" + part
	}
	return out
}

// ---- fixture ----

type fixture struct {
	service  Service
	orders   *stubOrders
	statuses *stubStatuses
	logs     *stubLogs
	gateway  *stubGateway
	locks    *fakeLockStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		orders:   newStubOrders(),
		statuses: newStubStatuses(),
		logs:     newStubLogs(),
		gateway: &stubGateway{result: &gateway.CollectRequestResult{
			CollectRequestID:  "collect-1",
			CollectRequestURL: "https://pay.example.com/collect-1",
		}},
		locks: newFakeLockStore(),
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	service, err := NewService(f.orders, f.statuses, f.logs, f.gateway, f.locks, logg, Options{
		CallbackURL: "https://app.example.com/payment-callback",
		LockWait:    200 * time.Millisecond,
	})
	require.NoError(t, err)
	f.service = service
	return f
}

func createInput() CreatePaymentInput {
	return CreatePaymentInput{
		SchoolID:  "school-1",
		TrusteeID: "trustee-1",
		StudentInfo: models.StudentInfo{
			Name:  "Asha Rao",
			ID:    "stu-100",
			Email: "asha@example.com",
		},
		Amount: decimal.NewFromInt(2500),
	}
}

// ---- CreatePayment ----

func TestCreatePaymentSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	result, err := f.service.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	assert.Equal(t, "collect-1", result.CollectRequestID)
	assert.Equal(t, "https://pay.example.com/collect-1", result.PaymentURL)
	assert.Regexp(t, `^ORD_`, result.CustomOrderID)

	order, err := f.orders.FindByID(ctx, result.CollectID)
	require.NoError(t, err)
	require.NotNil(t, order.CollectRequestID)
	assert.Equal(t, "collect-1", *order.CollectRequestID)

	row, err := f.statuses.FindByOrderID(ctx, result.CollectID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPending, row.Status)
	assert.True(t, row.OrderAmount.Equal(decimal.NewFromInt(2500)))
	assert.Nil(t, row.PaymentTime)
}

func TestCreatePaymentGatewayFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = pkgerrors.New(pkgerrors.CodeGateway, "collect request rejected")

	_, err := f.service.CreatePayment(context.Background(), createInput())
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGateway))

	assert.Equal(t, 0, f.orders.count())
	assert.Equal(t, 0, f.statuses.count())
}

func TestCreatePaymentGatewayFailureSurfacesDeleteError(t *testing.T) {
	f := newFixture(t)
	f.gateway.err = pkgerrors.New(pkgerrors.CodeGateway, "collect request rejected")
	f.orders.failOn = "delete"

	_, err := f.service.CreatePayment(context.Background(), createInput())
	require.Error(t, err)
	// both the gateway error and the failed compensation are reported
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeGateway))
	assert.Contains(t, err.Error(), "deleting order")
}

func TestCreatePaymentValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := createInput()
	input.SchoolID = ""
	_, err := f.service.CreatePayment(ctx, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	input = createInput()
	input.Amount = decimal.Zero
	_, err = f.service.CreatePayment(ctx, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	input = createInput()
	input.StudentInfo.Email = ""
	_, err = f.service.CreatePayment(ctx, input)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	assert.Equal(t, 0, f.gateway.calls)
}

// ---- SimulatePayment ----

func TestSimulatePaymentDefaultsToSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	input := SimulatePaymentInput{
		SchoolID:    "school-1",
		TrusteeID:   "trustee-1",
		StudentInfo: createInput().StudentInfo,
		Amount:      decimal.NewFromInt(900),
	}
	result, err := f.service.SimulatePayment(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusSuccess, result.Status)
	assert.Equal(t, "Credit Card (Simulated)", result.PaymentMethod)
	assert.Equal(t, "Payment simulated successfully", result.PaymentMessage)
	assert.Nil(t, result.ErrorMessage)
	assert.Regexp(t, `^SIM_`, result.CustomOrderID)
	assert.Regexp(t, `^SIM_REQ_`, result.CollectRequestID)
	assert.Regexp(t, `^SIM_TXN_`, result.TransactionID)
	assert.Equal(t, "#", result.PaymentURL)

	row, err := f.statuses.FindByOrderID(ctx, result.CollectID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSuccess, row.Status)
	require.True(t, row.TransactionAmount.Valid)
	assert.True(t, row.TransactionAmount.Decimal.Equal(decimal.NewFromInt(900)))
	assert.NotNil(t, row.PaymentTime)
}

func TestSimulatePaymentFailed(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.SimulatePayment(context.Background(), SimulatePaymentInput{
		SchoolID:      "school-1",
		TrusteeID:     "trustee-1",
		StudentInfo:   createInput().StudentInfo,
		Amount:        decimal.NewFromInt(500),
		PaymentStatus: enums.PaymentStatusFailed,
		PaymentMethod: "upi",
	})
	require.NoError(t, err)

	assert.Equal(t, "UPI (Simulated)", result.PaymentMethod)
	assert.Equal(t, "Payment simulation failed", result.PaymentMessage)
	require.NotNil(t, result.ErrorMessage)
	assert.Equal(t, "Simulated payment failure for testing", *result.ErrorMessage)

	row, err := f.statuses.FindByOrderID(context.Background(), result.CollectID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusFailed, row.Status)
	assert.Nil(t, row.PaymentTime)
	assert.False(t, row.TransactionAmount.Valid)
}

func TestSimulatePaymentPending(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.SimulatePayment(context.Background(), SimulatePaymentInput{
		SchoolID:      "school-1",
		TrusteeID:     "trustee-1",
		StudentInfo:   createInput().StudentInfo,
		Amount:        decimal.NewFromInt(100),
		PaymentStatus: enums.PaymentStatusPending,
		PaymentMethod: "wallet",
	})
	require.NoError(t, err)
	assert.Equal(t, "Payment is being processed", result.PaymentMessage)
	assert.Nil(t, result.ErrorMessage)
	assert.Equal(t, "Digital Wallet (Simulated)", result.PaymentMethod)
}

func TestSimulatePaymentUnknownMethodFallsBack(t *testing.T) {
	f := newFixture(t)

	result, err := f.service.SimulatePayment(context.Background(), SimulatePaymentInput{
		SchoolID:      "school-1",
		TrusteeID:     "trustee-1",
		StudentInfo:   createInput().StudentInfo,
		Amount:        decimal.NewFromInt(100),
		PaymentMethod: "crypto",
	})
	require.NoError(t, err)
	assert.Equal(t, "Credit Card (Simulated)", result.PaymentMethod)
}

// ---- IngestWebhook ----

func webhookBody(orderID string, httpStatus int) json.RawMessage {
	return json.RawMessage(fmt.Sprintf(`{
		"status": %d,
		"order_info": {
			"order_id": %q,
			"transaction_amount": 2500,
			"payment_method": "upi",
			"bank_reference": "BANKREF42",
			"payment_message": "payment received",
			"error_message": "insufficient funds"
		}
	}`, httpStatus, orderID))
}

func TestIngestWebhookSuccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	row, err := f.service.IngestWebhook(ctx, webhookBody(created.CustomOrderID, 200))
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusSuccess, row.Status)
	require.True(t, row.TransactionAmount.Valid)
	assert.True(t, row.TransactionAmount.Decimal.Equal(decimal.NewFromInt(2500)))
	require.NotNil(t, row.PaymentMode)
	assert.Equal(t, "upi", *row.PaymentMode)
	require.NotNil(t, row.BankReference)
	assert.Equal(t, "BANKREF42", *row.BankReference)
	assert.NotNil(t, row.PaymentTime)
	// error_message is cleared on success even if the payload carried one
	assert.Nil(t, row.ErrorMessage)

	logs := f.logs.rows
	require.Len(t, logs, 1)
	for _, logRow := range logs {
		assert.Equal(t, enums.WebhookStatusSuccess, logRow.Status)
		require.NotNil(t, logRow.CollectRequestID)
		assert.Equal(t, "collect-1", *logRow.CollectRequestID)
	}
}

func TestIngestWebhookNon200MarksFailed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	row, err := f.service.IngestWebhook(ctx, webhookBody(created.CustomOrderID, 500))
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusFailed, row.Status)
	require.NotNil(t, row.ErrorMessage)
	assert.Equal(t, "insufficient funds", *row.ErrorMessage)
}

func TestIngestWebhookMissingOrderInfo(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.IngestWebhook(context.Background(), json.RawMessage(`{"status":200}`))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	logRow := f.logs.single(t)
	assert.Equal(t, enums.WebhookStatusFailed, logRow.Status)
	require.NotNil(t, logRow.ErrorMessage)
	assert.Equal(t, "Invalid webhook payload: Missing order_info or order_id", *logRow.ErrorMessage)
}

func TestIngestWebhookMalformedJSON(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.IngestWebhook(context.Background(), json.RawMessage(`{not json`))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	logRow := f.logs.single(t)
	assert.Equal(t, enums.WebhookStatusFailed, logRow.Status)
}

func TestIngestWebhookUnknownOrder(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.IngestWebhook(context.Background(), webhookBody("ORD_MISSING", 200))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Contains(t, err.Error(), "Transaction with ID ORD_MISSING not found")

	logRow := f.logs.single(t)
	assert.Equal(t, enums.WebhookStatusFailed, logRow.Status)
	require.NotNil(t, logRow.ErrorMessage)
	assert.Equal(t, "Transaction with ID ORD_MISSING not found", *logRow.ErrorMessage)

	// no order or status row is fabricated
	assert.Equal(t, 0, f.orders.count())
	assert.Equal(t, 0, f.statuses.count())
}

func TestIngestWebhookIdempotentRedelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	first, err := f.service.IngestWebhook(ctx, webhookBody(created.CustomOrderID, 200))
	require.NoError(t, err)
	second, err := f.service.IngestWebhook(ctx, webhookBody(created.CustomOrderID, 200))
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, 1, f.statuses.count())
}

func TestIngestWebhookTerminalStickiness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	_, err = f.service.IngestWebhook(ctx, webhookBody(created.CustomOrderID, 200))
	require.NoError(t, err)

	// a later FAILED delivery cannot overwrite SUCCESS
	_, err = f.service.IngestWebhook(ctx, webhookBody(created.CustomOrderID, 500))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	row, err := f.statuses.FindByOrderID(ctx, created.CollectID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSuccess, row.Status)
}

func TestIngestWebhookProceedsWhenAuditWriteFails(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	f.logs.fail = true
	row, err := f.service.IngestWebhook(ctx, webhookBody(created.CustomOrderID, 200))
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSuccess, row.Status)
}

func TestIngestWebhookLockContention(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	// hold the order lock so the webhook cannot acquire it
	key := f.locks.LockKey("order", created.CollectID.String())
	held, err := f.locks.SetNX(ctx, key, "other-owner", time.Minute)
	require.NoError(t, err)
	require.True(t, held)

	_, err = f.service.IngestWebhook(ctx, webhookBody(created.CustomOrderID, 200))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

// ---- UpdateStatusManually ----

func TestUpdateStatusManuallyInsertsWhenAbsent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	order, err := f.orders.Create(ctx, &models.Order{
		SchoolID:      "school-1",
		TrusteeID:     "trustee-1",
		StudentInfo:   createInput().StudentInfo,
		GatewayName:   enums.GatewayCashfree,
		OrderAmount:   decimal.NewFromInt(300),
		CustomOrderID: "ORD_MANUAL_1",
	})
	require.NoError(t, err)

	method := "neft"
	row, err := f.service.UpdateStatusManually(ctx, ManualUpdateInput{
		TransactionID: "ORD_MANUAL_1",
		Status:        "success",
		PaymentMethod: &method,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusSuccess, row.Status)
	require.NotNil(t, row.PaymentMode)
	assert.Equal(t, "neft", *row.PaymentMode)
	assert.True(t, row.OrderAmount.Equal(order.OrderAmount))
}

func TestUpdateStatusManuallyPartialOverwrite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreatePayment(ctx, createInput())
	require.NoError(t, err)

	reference := "MANUAL_REF"
	row, err := f.service.UpdateStatusManually(ctx, ManualUpdateInput{
		TransactionID: created.CustomOrderID,
		Status:        "FAILED",
		BankReference: &reference,
	})
	require.NoError(t, err)

	assert.Equal(t, enums.PaymentStatusFailed, row.Status)
	require.NotNil(t, row.BankReference)
	assert.Equal(t, "MANUAL_REF", *row.BankReference)
	// snapshot amount from the PENDING row is untouched
	assert.True(t, row.OrderAmount.Equal(decimal.NewFromInt(2500)))
}

func TestUpdateStatusManuallyUnknownTransaction(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.UpdateStatusManually(context.Background(), ManualUpdateInput{
		TransactionID: "ORD_NOPE",
		Status:        "SUCCESS",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.Contains(t, err.Error(), "Transaction with ID ORD_NOPE not found")
}

func TestUpdateStatusManuallyInvalidStatus(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.UpdateStatusManually(context.Background(), ManualUpdateInput{
		TransactionID: "ORD_X",
		Status:        "REFUNDED",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateStatusManuallyTerminalStickiness(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.service.CreatePayment(ctx, createInput())
	require.NoError(t, err)
	_, err = f.service.IngestWebhook(ctx, webhookBody(created.CustomOrderID, 200))
	require.NoError(t, err)

	_, err = f.service.UpdateStatusManually(ctx, ManualUpdateInput{
		TransactionID: created.CustomOrderID,
		Status:        "PENDING",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	// reasserting the same terminal value stays allowed
	_, err = f.service.UpdateStatusManually(ctx, ManualUpdateInput{
		TransactionID: created.CustomOrderID,
		Status:        "SUCCESS",
	})
	require.NoError(t, err)
}
