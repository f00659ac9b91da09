package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tally/internal/logger"
)

const defaultActionLimit = 50

type actionsResponse struct {
	Actions []domain.ActionRecord `json:"actions"`
}

// Actions lists the most recent operator actions, newest first.
func Actions(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Actions == nil {
			writeMessage(w, http.StatusNotFound, "Action log is disabled")
			return
		}

		limit := defaultActionLimit
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				writeMessage(w, http.StatusBadRequest, "Invalid limit")
				return
			}
			limit = n
		}

		actions, err := d.Actions.RecentActions(r.Context(), limit)
		if err != nil {
			d.Logger.Warn("reading action log failed", logger.Error(err))
			writeMessage(w, http.StatusServiceUnavailable, "Action log unavailable")
			return
		}
		if actions == nil {
			actions = []domain.ActionRecord{}
		}
		writeJSON(w, http.StatusOK, actionsResponse{Actions: actions})
	}
}
