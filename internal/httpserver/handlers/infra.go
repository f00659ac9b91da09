package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tally/internal/snapshot"
)

type componentStatus struct {
	OK         bool   `json:"ok"`
	LastUpdate string `json:"last_update,omitempty"`
	Mode       string `json:"mode,omitempty"`
	Impact     string `json:"impact,omitempty"`
	Error      string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Profile    string                     `json:"profile"`
	APIBase    string                     `json:"api_base,omitempty"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of what the console depends on.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := d.Console.View()

		components := map[string]componentStatus{
			"monitoring_api": checkBackend(v),
			"redis":          checkRedis(r.Context(), d),
			"console": {
				OK:         v.Ready,
				LastUpdate: lastUpdate(v.UpdatedAt[snapshot.Alerts]),
				Mode:       consoleMode(v),
			},
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Profile:    d.Console.Profile().Name,
			APIBase:    d.APIBase,
			Components: components,
		})
	}
}

func lastUpdate(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Format("2006-01-02 15:04:05")
}

func consoleMode(v snapshot.View) string {
	switch {
	case v.Ready:
		return "live"
	case v.Restored:
		return "warm-start"
	default:
		return "starting"
	}
}

func checkBackend(v snapshot.View) componentStatus {
	st := componentStatus{LastUpdate: lastUpdate(v.UpdatedAt[snapshot.Health])}
	if v.Health == nil {
		st.Error = "no health report yet"
		if msg := v.Errors[snapshot.Health]; msg != "" {
			st.Error = msg
		}
		st.Impact = "status-unknown"
		return st
	}

	st.OK = v.Health.IsHealthy()
	st.Mode = v.Health.Status
	if v.Health.Error != nil {
		st.Error = *v.Health.Error
	}
	if !st.OK {
		st.Impact = "monitoring-data-stale"
	}
	if msg := v.Errors[snapshot.Health]; msg != "" {
		st.OK = false
		st.Error = msg
	}
	return st
}

func determineMode(components map[string]componentStatus) string {
	if api, ok := components["monitoring_api"]; ok && !api.OK {
		return "critical"
	}
	if c, ok := components["console"]; ok && !c.OK {
		return "degraded"
	}
	// Redis down only costs the warm start and the thumbnail cache.
	if redis, ok := components["redis"]; ok && !redis.OK && redis.Mode != "disabled" {
		return "degraded"
	}
	return "operational"
}

func checkRedis(ctx context.Context, d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "disabled",
			Impact: "no-warm-start",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "no-warm-start",
			Error:  err.Error(),
		}
	}

	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "warm-start-enabled",
	}
}
