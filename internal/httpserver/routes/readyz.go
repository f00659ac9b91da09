package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tally/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tally/internal/httpserver/mw"
	"github.com/MrSnakeDoc/tally/internal/metrics"
)

func init() { Register(registerProbes) }

func registerProbes(r chi.Router, d deps.Deps) {
	r.Get("/healthz", handlers.Healthz(d))

	guarded := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))
	guarded.Get("/readyz", handlers.Readyz(d))
	guarded.Get("/api/infra", handlers.Infra(d))
	guarded.Method("GET", "/metrics", metrics.Handler())
}
