package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tundeadepitan/swiftchow-backend/api/controllers"
	webhookcontrollers "github.com/tundeadepitan/swiftchow-backend/api/controllers/webhooks"
	"github.com/tundeadepitan/swiftchow-backend/api/middleware"
	internalorders "github.com/tundeadepitan/swiftchow-backend/internal/orders"
	"github.com/tundeadepitan/swiftchow-backend/internal/wallets"
	paystackwebhook "github.com/tundeadepitan/swiftchow-backend/internal/webhooks/paystack"
	"github.com/tundeadepitan/swiftchow-backend/internal/withdrawals"
	"github.com/tundeadepitan/swiftchow-backend/pkg/config"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/redis"
)

type webhookVerifier interface {
	VerifySignature(payload []byte, header string) bool
}

// RouterParams bundles everything the HTTP surface needs. The webhook
// verifier is an interface so tests can sign payloads with a known secret.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	DBPinger    db.Pinger
	RedisPinger redis.Pinger

	Wallets     *wallets.Service
	Orders      *internalorders.Service
	Withdrawals *withdrawals.Service
	Distributor controllers.OrderDistributor

	WebhookService  webhookcontrollers.PaystackWebhookService
	WebhookVerifier webhookVerifier
	WebhookGuard    *paystackwebhook.IdempotencyGuard
}

func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.DBPinger, params.RedisPinger))
	})

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/paystack", webhookcontrollers.PaystackWebhook(params.WebhookService, params.WebhookVerifier, params.WebhookGuard, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/wallets", func(r chi.Router) {
			r.Get("/me", controllers.GetWallet(params.Wallets, logg))
			r.Get("/me/transactions", controllers.ListWalletTransactions(params.Wallets, logg))
		})

		r.Route("/withdrawals", func(r chi.Router) {
			r.Post("/", controllers.RequestWithdrawal(params.Withdrawals, logg))
			r.Get("/", controllers.ListMyWithdrawals(params.Withdrawals, logg))
			r.Get("/{withdrawalId}", controllers.GetMyWithdrawal(params.Withdrawals, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(params.Orders, logg))
			r.Get("/", controllers.ListMyOrders(params.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(params.Orders, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireAdmin(logg))

		r.Get("/wallets/platform", controllers.AdminPlatformWallet(params.Wallets, logg))

		r.Route("/withdrawals/{withdrawalId}", func(r chi.Router) {
			r.Get("/", controllers.AdminGetWithdrawal(params.Withdrawals, logg))
			r.Post("/approve", controllers.AdminApproveWithdrawal(params.Withdrawals, logg))
			r.Post("/reject", controllers.AdminRejectWithdrawal(params.Withdrawals, logg))
			r.Post("/process", controllers.AdminProcessWithdrawal(params.Withdrawals, logg))
			r.Post("/complete", controllers.AdminCompleteWithdrawal(params.Withdrawals, logg))
			r.Post("/fail", controllers.AdminFailWithdrawal(params.Withdrawals, logg))
		})

		r.Post("/orders/{orderId}/distribute", controllers.AdminDistributeOrder(params.Distributor, logg))
	})

	return r
}
