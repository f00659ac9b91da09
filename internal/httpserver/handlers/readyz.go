package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready    bool `json:"ready"`
	Restored bool `json:"restored"`
}

// Readyz answers 503 until the first refresh round has completed. A
// restored snapshot is reported but does not make the console ready.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v := d.Console.View()
		status := http.StatusOK
		if !v.Ready {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, readyzResponse{Ready: v.Ready, Restored: v.Restored})
	}
}
