package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/utils"
)

// Refresh queues an immediate refresh of channels, alerts and inputs.
func Refresh(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip := utils.ClientIP(r, d.TrustProxy)
		if d.Console.TriggerRefresh() {
			d.Logger.Info("manual refresh triggered via endpoint", logger.String("remote_ip", ip))
			writeMessage(w, http.StatusAccepted, "Refresh triggered")
			return
		}
		d.Logger.Warn("refresh already queued", logger.String("remote_ip", ip))
		writeMessage(w, http.StatusTooManyRequests, "Refresh already queued, please wait")
	}
}
