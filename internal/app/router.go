package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/barcode"
	"github.com/meridian-pos/meridian-pos/internal/labels"
	"github.com/meridian-pos/meridian-pos/internal/observability"
	"github.com/meridian-pos/meridian-pos/internal/pricing"
	"github.com/meridian-pos/meridian-pos/internal/sku"
	"github.com/meridian-pos/meridian-pos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Metrics        *observability.Metrics
	BarcodeHandler *barcode.Handler
	SkuHandler     *sku.Handler
	PricingHandler *pricing.Handler
	LabelsHandler  *labels.Handler
	JobsHandler    *jobs.Handler
	Pool           *pgxpool.Pool
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Recoverer)
	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if params.Pool != nil {
			if err := params.Pool.Ping(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"status":"degraded"}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(api chi.Router) {
		if params.BarcodeHandler != nil {
			params.BarcodeHandler.MountRoutes(api)
		}
		if params.SkuHandler != nil {
			params.SkuHandler.MountRoutes(api)
		}
		if params.PricingHandler != nil {
			params.PricingHandler.MountRoutes(api)
		}
		if params.LabelsHandler != nil {
			params.LabelsHandler.MountRoutes(api)
		}
		if params.JobsHandler != nil {
			api.Route("/jobs", func(jr chi.Router) {
				params.JobsHandler.MountRoutes(jr)
			})
		}
	})

	return r
}
