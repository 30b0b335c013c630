package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/schoolpay/schoolpay-backend/api/controllers"
	"github.com/schoolpay/schoolpay-backend/api/middleware"
	"github.com/schoolpay/schoolpay-backend/internal/reconcile"
	"github.com/schoolpay/schoolpay-backend/internal/transactions"
	"github.com/schoolpay/schoolpay-backend/pkg/config"
	"github.com/schoolpay/schoolpay-backend/pkg/db"
	"github.com/schoolpay/schoolpay-backend/pkg/logger"
	"github.com/schoolpay/schoolpay-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	reconcileService reconcile.Service,
	transactionsService transactions.Service,
) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.FrontendURL),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Route("/api", func(r chi.Router) {
		// The gateway posts here without credentials.
		r.Post("/webhook", controllers.Webhook(reconcileService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Post("/create-payment", controllers.CreatePayment(reconcileService, logg))
			r.Post("/simulate-payment", controllers.SimulatePayment(reconcileService, logg))
			r.Post("/update-status", controllers.UpdateStatus(reconcileService, logg))

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", controllers.ListTransactions(transactionsService, logg))
				r.Get("/status/{customOrderId}", controllers.TransactionStatus(transactionsService, logg))
				r.Get("/payment-gateway-status/{collectRequestId}/{schoolId}", controllers.GatewayStatus(transactionsService, logg))
				r.Get("/gateway/{gateway}", controllers.TransactionsByGateway(transactionsService, logg))
				r.Get("/status-filter/{status}", controllers.TransactionsByStatus(transactionsService, logg))
				r.Get("/amount/{amount}", controllers.TransactionsByAmount(transactionsService, logg))
				r.Get("/transaction-amount/{amount}", controllers.TransactionsByTransactionAmount(transactionsService, logg))
				r.Get("/collect/{collectId}", controllers.TransactionsByCollect(transactionsService, logg))
				r.Get("/{schoolId}", controllers.TransactionsBySchool(transactionsService, logg))
			})
		})
	})

	return r
}
