package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aliyevk/codedesk-backend/api/controllers"
	"github.com/aliyevk/codedesk-backend/api/middleware"
	"github.com/aliyevk/codedesk-backend/pkg/config"
	"github.com/aliyevk/codedesk-backend/pkg/logger"
)

// Deps carries the optional dependencies the router exposes endpoints for.
// Nil entries disable the matching route or check.
type Deps struct {
	DB       controllers.Pinger
	Redis    controllers.Pinger
	Registry *prometheus.Registry
	Bot      controllers.UpdateHandler
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	if deps.Bot != nil && cfg.Telegram.UseWebhook() {
		r.Post(cfg.Telegram.WebhookPath, controllers.TelegramWebhook(cfg.Telegram.WebhookSecret, deps.Bot, logg))
	}

	return r
}
