package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/terrainforge/backend/api/controllers"
	"github.com/terrainforge/backend/api/middleware"
	catalogsvc "github.com/terrainforge/backend/internal/catalog"
	"github.com/terrainforge/backend/internal/pricing"
	tablesvc "github.com/terrainforge/backend/internal/tables"
	"github.com/terrainforge/backend/pkg/config"
	"github.com/terrainforge/backend/pkg/db"
	"github.com/terrainforge/backend/pkg/logger"
	"github.com/terrainforge/backend/pkg/metrics"
	"github.com/terrainforge/backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	catalogService catalogsvc.Service,
	tablesService tablesvc.Service,
	engine *pricing.Engine,
	editorMetrics *metrics.EditorMetrics,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/assets", func(r chi.Router) {
			r.Get("/", controllers.AssetList(catalogService, logg))
			r.Post("/", controllers.AssetCreate(catalogService, logg))
			r.Get("/{assetId}", controllers.AssetDetail(catalogService, logg))
			r.Get("/{assetId}/quote", controllers.AssetQuote(catalogService, engine, logg))
		})

		r.Route("/tables", func(r chi.Router) {
			r.Get("/", controllers.TableList(tablesService, logg))
			r.Post("/", controllers.TableCreate(tablesService, logg))

			r.Route("/{tableId}", func(r chi.Router) {
				r.Get("/", controllers.TableDetail(tablesService, logg))
				r.Patch("/", controllers.TableUpdate(tablesService, logg))
				r.Delete("/", controllers.TableDelete(tablesService, logg))
				r.Post("/clear", controllers.TableClear(tablesService, logg))

				r.Post("/placement-check", controllers.PlacementCheck(tablesService, logg))

				r.Route("/instances", func(r chi.Router) {
					r.Post("/", controllers.InstancePlace(tablesService, logg))
					r.Patch("/{instanceId}", controllers.InstanceMove(tablesService, logg))
					r.Delete("/{instanceId}", controllers.InstanceRemove(tablesService, logg))
				})

				r.Get("/basket", controllers.BasketFetch(tablesService, logg))
				r.Post("/quotes/basket", controllers.BasketQuote(tablesService, catalogService, engine, editorMetrics, logg))
			})
		})
	})

	return r
}
