package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/merouaHba/EcommerceAPI/api/controllers"
	ordercontrollers "github.com/merouaHba/EcommerceAPI/api/controllers/orders"
	sellercontrollers "github.com/merouaHba/EcommerceAPI/api/controllers/sellers"
	webhookcontrollers "github.com/merouaHba/EcommerceAPI/api/controllers/webhooks"
	"github.com/merouaHba/EcommerceAPI/api/middleware"
	"github.com/merouaHba/EcommerceAPI/internal/cancellation"
	internalorders "github.com/merouaHba/EcommerceAPI/internal/orders"
	internalsellers "github.com/merouaHba/EcommerceAPI/internal/sellers"
	"github.com/merouaHba/EcommerceAPI/pkg/config"
	"github.com/merouaHba/EcommerceAPI/pkg/db"
	"github.com/merouaHba/EcommerceAPI/pkg/logger"
	"github.com/merouaHba/EcommerceAPI/pkg/redis"
	"github.com/merouaHba/EcommerceAPI/pkg/stripe"
)

// Deps collects everything the router wires into handlers.
type Deps struct {
	Config *config.Config
	Logger *logger.Logger

	DB    db.Pinger
	Redis redis.Pinger

	Orders       internalorders.Service
	Cancellation cancellation.Service
	Sellers      *internalsellers.Service

	StripeClient  *stripe.Client
	StripeWebhook webhookcontrollers.StripeWebhookService

	Metrics prometheus.Gatherer
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.FrontendURL),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.DB, d.Redis))
	})

	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/stripe", webhookcontrollers.StripeWebhook(d.StripeWebhook, d.StripeClient, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireIdentity(logg))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Create(d.Orders, logg))
			r.Get("/", ordercontrollers.List(d.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(d.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(d.Cancellation, logg))
		})

		r.Route("/sub-orders", func(r chi.Router) {
			r.Post("/{subOrderId}/cancel", ordercontrollers.CancelSubOrder(d.Cancellation, logg))
		})

		r.Route("/sellers/me", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, middleware.RoleSeller))
			r.Get("/payout-status", sellercontrollers.PayoutStatus(d.Sellers, logg))
			r.Get("/sub-orders", ordercontrollers.ListSellerSubOrders(d.Orders, logg))
			r.Get("/sub-orders/{subOrderId}", ordercontrollers.SellerSubOrderDetail(d.Orders, logg))
			r.Patch("/sub-orders/{subOrderId}/status", ordercontrollers.UpdateSubOrderStatus(d.Orders, logg))
		})
	})

	return r
}
