package webhooklog

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	"github.com/schoolpay/schoolpay-backend/pkg/enums"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
	"github.com/schoolpay/schoolpay-backend/pkg/pagination"
)

func setupWebhookLogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	ddl := `
CREATE TABLE IF NOT EXISTS webhook_logs (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  payload TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'PROCESSING',
  error_message TEXT,
  order_id TEXT,
  collect_request_id TEXT,
  processed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(ddl).Error)
	return db
}

func TestRecordAndMarkOutcome(t *testing.T) {
	db := setupWebhookLogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	payload := json.RawMessage(`{"status":200,"order_info":{"order_id":"ORD_1"}}`)
	recorded, err := repo.Record(ctx, &models.WebhookLog{
		EventType: "payment.update",
		Payload:   payload,
		Status:    enums.WebhookStatusProcessing,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, recorded.ID)

	orderID := "ORD_1"
	collectID := "collect-55"
	err = repo.MarkOutcome(ctx, recorded.ID, Outcome{
		Status:           enums.WebhookStatusSuccess,
		OrderID:          &orderID,
		CollectRequestID: &collectID,
	})
	require.NoError(t, err)

	var found models.WebhookLog
	require.NoError(t, db.First(&found, "id = ?", recorded.ID).Error)
	assert.Equal(t, enums.WebhookStatusSuccess, found.Status)
	require.NotNil(t, found.OrderID)
	assert.Equal(t, "ORD_1", *found.OrderID)
	assert.Nil(t, found.ErrorMessage)
	assert.JSONEq(t, string(payload), string(found.Payload))
}

func TestMarkOutcomeFailure(t *testing.T) {
	db := setupWebhookLogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	recorded, err := repo.Record(ctx, &models.WebhookLog{
		EventType: "payment.update",
		Payload:   json.RawMessage(`{}`),
		Status:    enums.WebhookStatusProcessing,
	})
	require.NoError(t, err)

	msg := "Transaction with ID ORD_MISSING not found"
	err = repo.MarkOutcome(ctx, recorded.ID, Outcome{
		Status:       enums.WebhookStatusFailed,
		ErrorMessage: &msg,
	})
	require.NoError(t, err)

	var found models.WebhookLog
	require.NoError(t, db.First(&found, "id = ?", recorded.ID).Error)
	assert.Equal(t, enums.WebhookStatusFailed, found.Status)
	require.NotNil(t, found.ErrorMessage)
	assert.Equal(t, msg, *found.ErrorMessage)
}

func TestMarkOutcomeUnknownID(t *testing.T) {
	db := setupWebhookLogTestDB(t)
	repo := NewRepository(db)

	err := repo.MarkOutcome(context.Background(), uuid.New(), Outcome{Status: enums.WebhookStatusFailed})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestListPaginatesNewestFirst(t *testing.T) {
	db := setupWebhookLogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	for i := 0; i < 15; i++ {
		_, err := repo.Record(ctx, &models.WebhookLog{
			EventType: "payment.update",
			Payload:   json.RawMessage(fmt.Sprintf(`{"seq":%d}`, i)),
			Status:    enums.WebhookStatusProcessing,
		})
		require.NoError(t, err)
	}

	params, err := pagination.Params{Page: 2, Limit: 10}.Normalize()
	require.NoError(t, err)

	logs, total, err := repo.List(ctx, params)
	require.NoError(t, err)
	assert.EqualValues(t, 15, total)
	assert.Len(t, logs, 5)
}
