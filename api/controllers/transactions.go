package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/schoolpay/schoolpay-backend/api/responses"
	"github.com/schoolpay/schoolpay-backend/api/validators"
	"github.com/schoolpay/schoolpay-backend/internal/transactions"
	"github.com/schoolpay/schoolpay-backend/pkg/enums"
	pkgerrors "github.com/schoolpay/schoolpay-backend/pkg/errors"
	"github.com/schoolpay/schoolpay-backend/pkg/logger"
	"github.com/schoolpay/schoolpay-backend/pkg/pagination"
)

// listQuery extracts the common filter, pagination and sort parameters
// shared by every transaction listing route.
func listQuery(r *http.Request) (transactions.Filter, pagination.Params, transactions.Sort, error) {
	var filter transactions.Filter
	var params pagination.Params
	var sort transactions.Sort

	q := r.URL.Query()

	filter.SchoolID = strings.TrimSpace(q.Get("school_id"))
	filter.CustomOrderID = strings.TrimSpace(q.Get("custom_order_id"))
	filter.CollectRequestID = strings.TrimSpace(q.Get("collect_request_id"))
	if raw := strings.TrimSpace(q.Get("gateway")); raw != "" {
		filter.Gateway = enums.GatewayName(strings.ToUpper(raw))
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		filter.Status = enums.PaymentStatus(strings.ToUpper(raw))
	}

	start, err := validators.ParseQueryDate(r, "start_date")
	if err != nil {
		return filter, params, sort, err
	}
	filter.StartDate = start

	end, err := validators.ParseQueryDate(r, "end_date")
	if err != nil {
		return filter, params, sort, err
	}
	filter.EndDate = end

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return filter, params, sort, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
	if err != nil {
		return filter, params, sort, err
	}
	params = pagination.Params{Page: page, Limit: limit}

	sort, err = transactions.NormalizeSort(q.Get("sort"), q.Get("order"))
	if err != nil {
		return filter, params, sort, err
	}

	return filter, params, sort, nil
}

func writeListing(svc transactions.Service, logg *logger.Logger, w http.ResponseWriter, r *http.Request, filter transactions.Filter, params pagination.Params, sort transactions.Sort) {
	result, err := svc.List(r.Context(), filter, params, sort)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, err)
		return
	}
	responses.WriteSuccess(w, result)
}

// ListTransactions serves the merged order/status listing with query
// driven filters.
func ListTransactions(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, params, sort, err := listQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		writeListing(svc, logg, w, r, filter, params, sort)
	}
}

// TransactionsBySchool scopes the listing to one school.
func TransactionsBySchool(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, params, sort, err := listQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.SchoolID = chi.URLParam(r, "schoolId")
		if logg != nil {
			r = r.WithContext(logg.WithSchoolID(r.Context(), filter.SchoolID))
		}
		writeListing(svc, logg, w, r, filter, params, sort)
	}
}

// TransactionsByGateway scopes the listing to one payment gateway.
func TransactionsByGateway(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, params, sort, err := listQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Gateway = enums.GatewayName(strings.ToUpper(chi.URLParam(r, "gateway")))
		writeListing(svc, logg, w, r, filter, params, sort)
	}
}

// TransactionsByStatus scopes the listing to one payment status.
func TransactionsByStatus(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, params, sort, err := listQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Status = enums.PaymentStatus(strings.ToUpper(chi.URLParam(r, "status")))
		writeListing(svc, logg, w, r, filter, params, sort)
	}
}

// TransactionsByAmount matches on the ordered amount.
func TransactionsByAmount(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, params, sort, err := listQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := validators.ParseAmount("amount", chi.URLParam(r, "amount"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.OrderAmount = decimal.NullDecimal{Decimal: amount, Valid: true}
		writeListing(svc, logg, w, r, filter, params, sort)
	}
}

// TransactionsByTransactionAmount matches on the settled amount.
func TransactionsByTransactionAmount(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, params, sort, err := listQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := validators.ParseAmount("amount", chi.URLParam(r, "amount"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.TransactionAmount = decimal.NullDecimal{Decimal: amount, Valid: true}
		writeListing(svc, logg, w, r, filter, params, sort)
	}
}

// TransactionsByCollect matches on the gateway collect request id.
func TransactionsByCollect(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, params, sort, err := listQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.CollectRequestID = chi.URLParam(r, "collectId")
		writeListing(svc, logg, w, r, filter, params, sort)
	}
}

// TransactionStatus returns the merged view of one transaction by its
// public custom order id.
func TransactionStatus(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		customOrderID := chi.URLParam(r, "customOrderId")
		if customOrderID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "custom order id is required"))
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithCustomOrderID(ctx, customOrderID)
		}
		view, err := svc.GetByCustomOrderID(ctx, customOrderID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// GatewayStatus proxies a live status check to the payment gateway.
func GatewayStatus(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		collectRequestID := chi.URLParam(r, "collectRequestId")
		schoolID := chi.URLParam(r, "schoolId")
		if collectRequestID == "" || schoolID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "collect request id and school id are required"))
			return
		}
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithSchoolID(ctx, schoolID)
		}
		result, err := svc.CheckGatewayStatus(ctx, collectRequestID, schoolID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
