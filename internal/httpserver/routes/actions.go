package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tally/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tally/internal/httpserver/mw"
)

func init() { Register(registerActions) }

// Everything that changes state, on the monitoring API or in the console,
// shares one per-client rate limit.
func registerActions(r chi.Router, d deps.Deps) {
	api := r.With(
		mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger),
		mw.EnforceHost(d.AllowedHosts, d.Logger),
	)
	if d.RateLimit != nil {
		api = api.With(d.RateLimit)
	}

	api.Post("/api/alerts/{id}/acknowledge", handlers.AcknowledgeAlert(d))
	api.Post("/api/alerts/{id}/resolve", handlers.ResolveAlert(d))

	api.Post("/api/inputs", handlers.CreateInput(d))
	api.Put("/api/inputs/{id}", handlers.UpdateInput(d))
	api.Delete("/api/inputs/{id}", handlers.DeleteInput(d))
	api.Delete("/api/form", handlers.CancelForm(d))

	api.Put("/api/metrics/watch/{id}", handlers.WatchMetrics(d))
	api.Delete("/api/metrics/watch", handlers.StopMetrics(d))

	api.Put("/api/debug", handlers.SetDebug(d))
	api.Delete("/api/notifications/{id}", handlers.DismissNotification(d))
	api.Post("/api/refresh", handlers.Refresh(d))
}
