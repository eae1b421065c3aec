package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MikeSquared-Agency/Assay/internal/resource"
	"github.com/MikeSquared-Agency/Assay/internal/scoring"
	"github.com/MikeSquared-Agency/Assay/internal/store"
)

// Tracker is the part of the tracker the API drives.
type Tracker interface {
	Ingester
	Syncer
}

// RouterConfig holds the request-level settings of the API.
type RouterConfig struct {
	AdminToken      string
	DefaultLimit    int
	WritesPerMinute int
}

func NewRouter(s store.Store, t Tracker, reg *resource.Registry, rater *scoring.Rater, rc RouterConfig, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(rc.WritesPerMinute))

	resources := NewResourcesHandler(s, t, reg, logger)
	schematics := NewSchematicsHandler(s, reg, rater, rc.DefaultLimit, logger)
	rating := NewRatingHandler(reg, rater)
	weights := NewWeightsHandler()
	classes := NewClassesHandler(reg)
	admin := NewAdminHandler(s, t)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(ClientIDMiddleware)

		r.Post("/resources", resources.Create)
		r.Get("/resources", resources.List)
		r.Get("/resources/{id}", resources.Get)
		r.Post("/resources/{id}/deplete", resources.Deplete)

		r.Post("/schematics", schematics.Create)
		r.Get("/schematics", schematics.List)
		r.Get("/schematics/{id}", schematics.Get)
		r.Delete("/schematics/{id}", schematics.Delete)
		r.Get("/schematics/{id}/experiments/{n}/best", schematics.Best)

		r.Post("/rate", rating.Rate)

		r.Post("/weights/adjust", weights.Adjust)
		r.Post("/weights/wider", weights.Wider)
		r.Post("/weights/validate", weights.Validate)

		r.Get("/classes/{token}", classes.Get)
		r.Get("/classes/{token}/children", classes.Children)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(rc.AdminToken))
			r.Get("/stats", admin.Stats)
			r.Post("/sync", admin.Sync)
		})
	})

	return r
}

// NewMetricsRouter serves /health and the prometheus collectors of g.
func NewMetricsRouter(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	return r
}
