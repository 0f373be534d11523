package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/servline/servline-backend/api/controllers"
	ordercontrollers "github.com/servline/servline-backend/api/controllers/orders"
	"github.com/servline/servline-backend/api/middleware"
	"github.com/servline/servline-backend/pkg/config"
	"github.com/servline/servline-backend/pkg/db"
	"github.com/servline/servline-backend/pkg/logger"
	pkgredis "github.com/servline/servline-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	lifecycleSvc ordercontrollers.LifecycleService,
	reconciliationSvc ordercontrollers.ReconciliationService,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/orders", func(r chi.Router) {
		r.Use(middleware.ActorContext(logg))
		r.Use(middleware.Idempotency(redisClient, cfg.Idempotency.TTL, logg))

		r.Get("/", ordercontrollers.List(lifecycleSvc, logg))
		r.Get("/{orderId}", ordercontrollers.Detail(lifecycleSvc, logg))
		r.Get("/{orderId}/actions", ordercontrollers.Actions(lifecycleSvc, logg))
		r.Post("/{orderId}/status", ordercontrollers.UpdateStatus(lifecycleSvc, logg))
		r.Get("/{orderId}/reconciliation", ordercontrollers.ReconciliationPreview(reconciliationSvc, logg))
		r.Post("/{orderId}/reconciliation/apply", ordercontrollers.ReconciliationApply(reconciliationSvc, logg))
	})

	return r
}
