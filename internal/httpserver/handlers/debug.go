package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
)

type debugResponse struct {
	Enabled bool `json:"enabled"`
	domain.Debug
}

func Debug(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dump, err := d.Console.Debug()
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, debugResponse{Enabled: d.Console.DebugEnabled(), Debug: dump})
	}
}

type debugToggle struct {
	Enabled bool `json:"enabled"`
}

// SetDebug turns the debug dumps on or off: body {"enabled": true}.
func SetDebug(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body debugToggle
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&body); err != nil {
			writeMessage(w, http.StatusBadRequest, "Invalid JSON body")
			return
		}
		if err := d.Console.SetDebug(body.Enabled); err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, debugToggle{Enabled: d.Console.DebugEnabled()})
	}
}
