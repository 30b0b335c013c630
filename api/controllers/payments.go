package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/schoolpay/schoolpay-backend/api/responses"
	"github.com/schoolpay/schoolpay-backend/api/validators"
	"github.com/schoolpay/schoolpay-backend/internal/reconcile"
	"github.com/schoolpay/schoolpay-backend/pkg/db/models"
	"github.com/schoolpay/schoolpay-backend/pkg/enums"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
	"github.com/schoolpay/schoolpay-backend/pkg/logger"
)

type studentInfoBody struct {
	Name  string `json:"name" validate:"required"`
	ID    string `json:"id" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

type createPaymentRequest struct {
	SchoolID    string          `json:"school_id" validate:"required"`
	TrusteeID   string          `json:"trustee_id" validate:"required"`
	StudentInfo studentInfoBody `json:"student_info" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	CallbackURL string          `json:"callback_url" validate:"omitempty,url"`
}

type simulatePaymentRequest struct {
	SchoolID      string          `json:"school_id" validate:"required"`
	TrusteeID     string          `json:"trustee_id" validate:"required"`
	StudentInfo   studentInfoBody `json:"student_info" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentStatus string          `json:"payment_status" validate:"omitempty,oneof=SUCCESS PENDING FAILED"`
	PaymentMethod string          `json:"payment_method"`
}

// CreatePayment opens a collect request at the gateway and returns the
// hosted payment URL.
func CreatePayment(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createPaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSchoolID(ctx, body.SchoolID)
		}

		result, err := svc.CreatePayment(ctx, reconcile.CreatePaymentInput{
			SchoolID:  body.SchoolID,
			TrusteeID: body.TrusteeID,
			StudentInfo: models.StudentInfo{
				Name:  body.StudentInfo.Name,
				ID:    body.StudentInfo.ID,
				Email: body.StudentInfo.Email,
			},
			Amount:      body.Amount,
			CallbackURL: body.CallbackURL,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// SimulatePayment records a synthetic transaction without touching the
// gateway. Outcome defaults to SUCCESS when the caller does not force one.
func SimulatePayment(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body simulatePaymentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := enums.PaymentStatusSuccess
		if body.PaymentStatus != "" {
			parsed, err := enums.ParsePaymentStatus(body.PaymentStatus)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment_status"))
				return
			}
			status = parsed
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSchoolID(ctx, body.SchoolID)
		}

		result, err := svc.SimulatePayment(ctx, reconcile.SimulatePaymentInput{
			SchoolID:  body.SchoolID,
			TrusteeID: body.TrusteeID,
			StudentInfo: models.StudentInfo{
				Name:  body.StudentInfo.Name,
				ID:    body.StudentInfo.ID,
				Email: body.StudentInfo.Email,
			},
			Amount:        body.Amount,
			PaymentStatus: status,
			PaymentMethod: body.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
