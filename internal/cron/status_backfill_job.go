package cron

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"

	"github.com/schoolpay/schoolpay-backend/internal/orders"
	"github.com/schoolpay/schoolpay-backend/internal/status"
	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	"github.com/schoolpay/schoolpay-backend/pkg/enums"
	"github.com/schoolpay/schoolpay-backend/pkg/logger"
)

const (
	defaultBackfillGrace = 10 * time.Minute
	defaultBackfillBatch = 100
)

// StatusBackfillJob repairs orders that were confirmed at the gateway but
// crashed before their PENDING status row was written. Each such order gets
// the default status so it shows up in listings and can still settle via
// webhook.
type StatusBackfillJob struct {
	orders   orders.Repository
	statuses status.Repository
	logg     *logger.Logger
	grace    time.Duration
	batch    int
}

// NewStatusBackfillJob builds the sweep job.
func NewStatusBackfillJob(
	ordersRepo orders.Repository,
	statusRepo status.Repository,
	logg *logger.Logger,
	grace time.Duration,
	batch int,
) (*StatusBackfillJob, error) {
	if ordersRepo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if statusRepo == nil {
		return nil, fmt.Errorf("status repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if grace <= 0 {
		grace = defaultBackfillGrace
	}
	if batch <= 0 {
		batch = defaultBackfillBatch
	}
	return &StatusBackfillJob{
		orders:   ordersRepo,
		statuses: statusRepo,
		logg:     logg,
		grace:    grace,
		batch:    batch,
	}, nil
}

// Name identifies the job in logs and metrics.
func (j *StatusBackfillJob) Name() string { return "status-backfill" }

// Run backfills one batch of statusless confirmed orders.
func (j *StatusBackfillJob) Run(ctx context.Context) error {
	cutoff := time.Now().Add(-j.grace)
	stale, err := j.orders.FindConfirmedWithoutStatusBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("listing statusless orders: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}

	var errs error
	repaired := 0
	for _, order := range stale {
		wrote, err := j.statuses.CreateIfAbsent(ctx, &models.OrderStatus{
			OrderID:     order.ID,
			OrderAmount: order.OrderAmount,
			Status:      enums.PaymentStatusPending,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("order %s: %w", order.CustomOrderID, err))
			continue
		}
		if wrote {
			repaired++
		}
	}

	ctx = j.logg.WithFields(ctx, map[string]any{
		"candidates": len(stale),
		"repaired":   repaired,
	})
	j.logg.Info(ctx, "status backfill pass complete")
	return errs
}
