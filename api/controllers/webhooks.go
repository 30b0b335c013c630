package controllers

import (
	"io"
	"net/http"

	"github.com/schoolpay/schoolpay-backend/api/responses"
	"github.com/schoolpay/schoolpay-backend/api/validators"
	"github.com/schoolpay/schoolpay-backend/internal/reconcile"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
	"github.com/schoolpay/schoolpay-backend/pkg/logger"
)

const maxWebhookBody = 1 << 20

type updateStatusRequest struct {
	TransactionID string  `json:"transaction_id" validate:"required"`
	Status        string  `json:"status" validate:"required"`
	PaymentMethod *string `json:"payment_method"`
	BankReference *string `json:"bank_reference"`
}

// Webhook ingests a raw gateway notification. The body is persisted as the
// audit record before any interpretation happens, so it is read verbatim.
func Webhook(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "reading webhook body"))
			return
		}

		row, err := svc.IngestWebhook(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}

// UpdateStatus applies a privileged manual status correction.
func UpdateStatus(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body updateStatusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithCustomOrderID(ctx, body.TransactionID)
		}

		row, err := svc.UpdateStatusManually(ctx, reconcile.ManualUpdateInput{
			TransactionID: body.TransactionID,
			Status:        body.Status,
			PaymentMethod: body.PaymentMethod,
			BankReference: body.BankReference,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, row)
	}
}
