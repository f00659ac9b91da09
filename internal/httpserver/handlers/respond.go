package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/monitorapi"
	"github.com/MrSnakeDoc/tally/internal/profile"
)

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps err to a status and answers with its operator-facing text.
func writeError(w http.ResponseWriter, d deps.Deps, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		d.Logger.Warn("request failed",
			logger.String("path", r.URL.Path),
			logger.Int("status", status),
			logger.Error(err))
	}
	writeMessage(w, status, messageFor(err))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, profile.ErrNotAllowed):
		return http.StatusForbidden
	case errors.Is(err, console.ErrDeleteNotConfirmed),
		errors.Is(err, console.ErrFormBusy),
		errors.Is(err, console.ErrFormNotOpen):
		return http.StatusConflict
	case errors.Is(err, console.ErrMissingField),
		errors.Is(err, console.ErrInvalidField),
		errors.Is(err, console.ErrUnknownField):
		return http.StatusBadRequest
	}

	// 4xx from the monitoring API are the operator's problem and pass
	// through; anything else is a bad upstream.
	if code := monitorapi.StatusCode(err); code >= 400 && code < 500 {
		return code
	}
	return http.StatusBadGateway
}

func messageFor(err error) string {
	if monitorapi.StatusCode(err) != 0 {
		return monitorapi.Message(err)
	}
	if errors.Is(err, console.ErrDeleteNotConfirmed) {
		return "Deletion must be confirmed with confirm=true"
	}
	return err.Error()
}

// pathID reads the {id} URL parameter. It answers 400 itself on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeMessage(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}
