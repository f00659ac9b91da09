package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
)

type notificationsResponse struct {
	Notifications []console.Notification `json:"notifications"`
}

func Notifications(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Console.Notifications()
		if list == nil {
			list = []console.Notification{}
		}
		writeJSON(w, http.StatusOK, notificationsResponse{Notifications: list})
	}
}

func DismissNotification(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !d.Console.Dismiss(chi.URLParam(r, "id")) {
			writeMessage(w, http.StatusNotFound, "Notification not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
