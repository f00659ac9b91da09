package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tally/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/tally/internal/httpserver/mw"
)

func init() { Register(registerViews) }

func registerViews(r chi.Router, d deps.Deps) {
	api := r.With(mw.EnforceHost(d.AllowedHosts, d.Logger))

	api.Get("/api/overview", handlers.Overview(d))
	api.Get("/api/channels", handlers.Channels(d))
	api.Get("/api/alerts", handlers.Alerts(d))
	api.Get("/api/inputs", handlers.Inputs(d))
	api.Get("/api/inputs/{id}", handlers.Input(d))
	api.Get("/api/inputs/{id}/snapshot", handlers.InputSnapshot(d))
	api.Get("/api/form", handlers.Form(d))
	api.Get("/api/metrics", handlers.Metrics(d))
	api.Get("/api/debug", handlers.Debug(d))
	api.Get("/api/notifications", handlers.Notifications(d))
	api.Get("/api/actions", handlers.Actions(d))
}
