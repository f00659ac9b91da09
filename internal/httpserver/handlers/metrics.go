package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tally/internal/logger"
)

type metricsResponse struct {
	Watching bool                 `json:"watching"`
	Panel    *domain.MetricsPanel `json:"panel,omitempty"`
}

// WatchMetrics selects the input of the metrics view. The panel loads in
// the background and refreshes every metrics interval.
func WatchMetrics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		d.Console.WatchMetrics(id)
		d.Logger.Debug("metrics watch started", logger.Int("input_id", id))
		writeJSON(w, http.StatusAccepted, currentMetrics(d))
	}
}

func StopMetrics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d.Console.StopMetrics()
		writeJSON(w, http.StatusOK, metricsResponse{})
	}
}

func Metrics(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, currentMetrics(d))
	}
}

func currentMetrics(d deps.Deps) metricsResponse {
	panel, ok := d.Console.Metrics()
	if !ok {
		return metricsResponse{}
	}
	return metricsResponse{Watching: true, Panel: &panel}
}
