package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/module-swap/api/controllers"
	linkcontrollers "github.com/angelmondragon/module-swap/api/controllers/links"
	swapcontrollers "github.com/angelmondragon/module-swap/api/controllers/swap"
	"github.com/angelmondragon/module-swap/api/middleware"
	"github.com/angelmondragon/module-swap/internal/links"
	"github.com/angelmondragon/module-swap/internal/swap"
	"github.com/angelmondragon/module-swap/pkg/config"
	"github.com/angelmondragon/module-swap/pkg/logger"
	"github.com/angelmondragon/module-swap/pkg/redis"
)

// Dependencies groups what the router hands to controllers and middleware.
type Dependencies struct {
	DB               controllers.Pinger
	Redis            controllers.Pinger
	IdempotencyStore redis.IdempotencyStore
	Gatherer         prometheus.Gatherer
	RequestObserver  middleware.RequestObserver

	SwapService  swap.Service
	LinksService links.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, deps.RequestObserver),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}, logg))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	cookie := swapcontrollers.CookieOptions{
		Name:   cfg.Workflow.CookieName,
		Secure: cfg.App.IsProd(),
	}

	r.Route("/api/v1/module-swap", func(r chi.Router) {
		r.Use(
			middleware.Auth(cfg.JWT, logg),
			middleware.WorkflowToken(cfg.Workflow.CookieName, logg),
			middleware.Idempotency(deps.IdempotencyStore, cfg.App.IdempotencyTTL, logg),
		)

		r.Get("/select", swapcontrollers.SelectionForm(deps.SwapService, logg))
		r.Post("/select", swapcontrollers.Select(deps.SwapService, cookie, logg))
		r.Get("/place", swapcontrollers.PlacementForm(deps.SwapService, logg))
		r.Post("/place", swapcontrollers.Place(deps.SwapService, cookie, logg))
		r.Get("/history", swapcontrollers.History(deps.SwapService, logg))

		linkPath := "/links/{" + linkcontrollers.IDParam + "}"
		r.Get("/links", linkcontrollers.List(deps.LinksService, logg))
		r.Post("/links", linkcontrollers.Create(deps.LinksService, logg))
		r.Get("/links/new", linkcontrollers.NewForm(deps.LinksService, logg))
		r.Get(linkPath, linkcontrollers.EditForm(deps.LinksService, logg))
		r.Post(linkPath, linkcontrollers.Update(deps.LinksService, logg))
		r.Put(linkPath, linkcontrollers.Update(deps.LinksService, logg))
		r.Delete(linkPath, linkcontrollers.Delete(deps.LinksService, logg))
		r.Get(linkPath+"/delete", linkcontrollers.ConfirmDelete(deps.LinksService, logg))
		r.Post(linkPath+"/delete", linkcontrollers.Delete(deps.LinksService, logg))
	})

	return r
}
