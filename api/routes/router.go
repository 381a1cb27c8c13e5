package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Fares-ag/blox-backend/api/controllers"
	"github.com/Fares-ag/blox-backend/api/middleware"
	"github.com/Fares-ag/blox-backend/pkg/config"
	"github.com/Fares-ag/blox-backend/pkg/db"
	"github.com/Fares-ag/blox-backend/pkg/logger"
	"github.com/Fares-ag/blox-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config       *config.Config
	Logger       *logger.Logger
	DB           db.Pinger
	Redis        *redis.Client
	Payments     controllers.PaymentsService
	Webhooks     controllers.WebhookService
	Applications controllers.ApplicationsService
	Transactions controllers.TransactionReader
	Registry     *prometheus.Registry
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	// Customer-facing payment surface. Open CORS: the checkout page runs in
	// contexts we do not control, and the gateway calls the webhook directly.
	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(middleware.PublicCORS())
		r.Post("/", controllers.InitiatePayment(deps.Payments, logg))
		r.Post("/verify", controllers.VerifyPayment(deps.Payments, logg))
		r.Post("/webhook", controllers.SkipCashWebhook(deps.Webhooks, logg))
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.CORS())
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/v1/applications/{applicationId}", func(r chi.Router) {
			r.Get("/", controllers.AdminGetApplication(deps.Applications, logg))
			r.Route("/schedule", func(r chi.Router) {
				r.Post("/regenerate", controllers.AdminRegenerateSchedule(deps.Applications, logg))
				r.Post("/shift", controllers.AdminShiftSchedule(deps.Applications, logg))
				r.Post("/settle", controllers.AdminSettleSchedule(deps.Applications, logg))
				r.Post("/entries/{entryIndex}/pay", controllers.AdminMarkEntryPaid(deps.Applications, logg))
			})
		})

		r.Route("/v1/transactions", func(r chi.Router) {
			r.Get("/", controllers.AdminListTransactions(deps.Transactions, logg))
			r.Get("/{transactionId}", controllers.AdminGetTransaction(deps.Transactions, logg))
		})
	})

	return r
}
