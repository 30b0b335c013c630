package transactions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	"github.com/schoolpay/schoolpay-backend/pkg/enums"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
	"github.com/schoolpay/schoolpay-backend/pkg/pagination"
)

func setupTransactionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  school_id TEXT NOT NULL,
  trustee_id TEXT NOT NULL,
  student_name TEXT NOT NULL,
  student_id TEXT NOT NULL,
  student_email TEXT NOT NULL,
  gateway_name TEXT NOT NULL,
  order_amount TEXT NOT NULL,
  custom_order_id TEXT NOT NULL UNIQUE,
  collect_request_id TEXT,
  collect_request_url TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	orderStatus := `
CREATE TABLE IF NOT EXISTS order_status (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL UNIQUE,
  order_amount TEXT NOT NULL,
  transaction_amount TEXT,
  status TEXT NOT NULL DEFAULT 'PENDING',
  payment_mode TEXT,
  payment_details TEXT,
  bank_reference TEXT,
  payment_message TEXT,
  error_message TEXT,
  payment_time DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(orderStatus).Error)
	return db
}

type seedOpts struct {
	school  string
	gateway enums.GatewayName
	amount  int64
	status  enums.PaymentStatus // "" means no status row
	txnAmt  *int64
	collect string
	created time.Time
}

func seed(t *testing.T, db *gorm.DB, customOrderID string, opts seedOpts) uuid.UUID {
	t.Helper()

	if opts.school == "" {
		opts.school = "school-1"
	}
	if opts.gateway == "" {
		opts.gateway = enums.GatewayCashfree
	}
	if opts.amount == 0 {
		opts.amount = 1000
	}
	if opts.created.IsZero() {
		opts.created = time.Now()
	}

	order := models.Order{
		ID:            uuid.New(),
		SchoolID:      opts.school,
		TrusteeID:     "trustee-1",
		StudentInfo:   models.StudentInfo{Name: "Asha", ID: "s1", Email: "a@example.com"},
		GatewayName:   opts.gateway,
		OrderAmount:   decimal.NewFromInt(opts.amount),
		CustomOrderID: customOrderID,
		CreatedAt:     opts.created,
	}
	if opts.collect != "" {
		order.CollectRequestID = &opts.collect
	}
	require.NoError(t, db.Create(&order).Error)

	if opts.status != "" {
		row := models.OrderStatus{
			ID:          uuid.New(),
			OrderID:     order.ID,
			OrderAmount: order.OrderAmount,
			Status:      opts.status,
		}
		if opts.txnAmt != nil {
			row.TransactionAmount = decimal.NewNullDecimal(decimal.NewFromInt(*opts.txnAmt))
		}
		require.NoError(t, db.Create(&row).Error)
	}
	return order.ID
}

func defaultParams(t *testing.T) pagination.Params {
	t.Helper()
	params, err := pagination.Params{}.Normalize()
	require.NoError(t, err)
	return params
}

func defaultSort(t *testing.T) Sort {
	t.Helper()
	sort, err := NormalizeSort("", "")
	require.NoError(t, err)
	return sort
}

func TestListMergesStatusAndDefaultsToPending(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	amt := int64(1000)
	seed(t, db, "ORD_A", seedOpts{status: enums.PaymentStatusSuccess, txnAmt: &amt})
	seed(t, db, "ORD_B", seedOpts{}) // no status row

	views, total, err := repo.List(ctx, Filter{}, defaultParams(t), defaultSort(t))
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, views, 2)

	byID := map[string]View{}
	for _, view := range views {
		byID[view.CustomOrderID] = view
	}
	assert.Equal(t, enums.PaymentStatusSuccess, byID["ORD_A"].Status)
	assert.True(t, byID["ORD_A"].TransactionAmount.Valid)
	assert.Equal(t, enums.PaymentStatusPending, byID["ORD_B"].Status)
	assert.False(t, byID["ORD_B"].TransactionAmount.Valid)
}

func TestListFilters(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	txn := int64(700)
	seed(t, db, "ORD_S1", seedOpts{school: "school-1", status: enums.PaymentStatusSuccess, txnAmt: &txn, collect: "collect-1"})
	seed(t, db, "ORD_S2", seedOpts{school: "school-2", gateway: enums.GatewaySimulation, amount: 450})
	seed(t, db, "ORD_S3", seedOpts{school: "school-1", status: enums.PaymentStatusFailed})

	cases := []struct {
		name   string
		filter Filter
		expect []string
	}{
		{"by school", Filter{SchoolID: "school-2"}, []string{"ORD_S2"}},
		{"by gateway", Filter{Gateway: enums.GatewaySimulation}, []string{"ORD_S2"}},
		{"by status", Filter{Status: enums.PaymentStatusFailed}, []string{"ORD_S3"}},
		{"pending includes statusless", Filter{Status: enums.PaymentStatusPending}, []string{"ORD_S2"}},
		{"by order amount", Filter{OrderAmount: decimal.NewNullDecimal(decimal.NewFromInt(450))}, []string{"ORD_S2"}},
		{"by transaction amount", Filter{TransactionAmount: decimal.NewNullDecimal(decimal.NewFromInt(700))}, []string{"ORD_S1"}},
		{"by collect id", Filter{CollectRequestID: "collect-1"}, []string{"ORD_S1"}},
		{"by custom order id", Filter{CustomOrderID: "ORD_S3"}, []string{"ORD_S3"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			views, total, err := repo.List(ctx, tc.filter, defaultParams(t), defaultSort(t))
			require.NoError(t, err)
			assert.EqualValues(t, len(tc.expect), total)
			got := make([]string, 0, len(views))
			for _, view := range views {
				got = append(got, view.CustomOrderID)
			}
			assert.ElementsMatch(t, tc.expect, got)
		})
	}
}

func TestListDateRange(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	now := time.Now()
	seed(t, db, "ORD_OLD", seedOpts{created: now.Add(-48 * time.Hour)})
	seed(t, db, "ORD_NEW", seedOpts{created: now})

	start := now.Add(-24 * time.Hour)
	views, total, err := repo.List(ctx, Filter{StartDate: &start}, defaultParams(t), defaultSort(t))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, views, 1)
	assert.Equal(t, "ORD_NEW", views[0].CustomOrderID)

	end := now.Add(-24 * time.Hour)
	views, total, err = repo.List(ctx, Filter{EndDate: &end}, defaultParams(t), defaultSort(t))
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, views, 1)
	assert.Equal(t, "ORD_OLD", views[0].CustomOrderID)
}

func TestListPagination(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		seed(t, db, fmt.Sprintf("ORD_P%02d", i), seedOpts{created: base.Add(time.Duration(i) * time.Minute)})
	}

	sort := defaultSort(t)

	page1, total, err := repo.List(ctx, Filter{}, pagination.Params{Page: 1, Limit: 10}, sort)
	require.NoError(t, err)
	assert.EqualValues(t, 25, total)
	assert.Len(t, page1, 10)
	// newest first
	assert.Equal(t, "ORD_P24", page1[0].CustomOrderID)

	page3, _, err := repo.List(ctx, Filter{}, pagination.Params{Page: 3, Limit: 10}, sort)
	require.NoError(t, err)
	assert.Len(t, page3, 5)

	page4, _, err := repo.List(ctx, Filter{}, pagination.Params{Page: 4, Limit: 10}, sort)
	require.NoError(t, err)
	assert.Len(t, page4, 0)
}

func TestListSortAscending(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	seed(t, db, "ORD_FIRST", seedOpts{created: base})
	seed(t, db, "ORD_SECOND", seedOpts{created: base.Add(time.Minute)})

	sort, err := NormalizeSort("created_at", "asc")
	require.NoError(t, err)

	views, _, err := repo.List(ctx, Filter{}, defaultParams(t), sort)
	require.NoError(t, err)
	require.Len(t, views, 2)
	assert.Equal(t, "ORD_FIRST", views[0].CustomOrderID)
}

func TestFindByCustomOrderID(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	amt := int64(1000)
	seed(t, db, "ORD_LOOKUP", seedOpts{status: enums.PaymentStatusSuccess, txnAmt: &amt, collect: "collect-9"})

	view, err := repo.FindByCustomOrderID(ctx, "ORD_LOOKUP")
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSuccess, view.Status)
	require.NotNil(t, view.CollectRequestID)
	assert.Equal(t, "collect-9", *view.CollectRequestID)

	_, err = repo.FindByCustomOrderID(ctx, "ORD_GONE")
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
