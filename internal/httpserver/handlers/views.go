package handlers

import (
	"net/http"
	"strconv"

	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/domain"
	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
)

func Overview(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Console.Overview())
	}
}

// Channels applies the tier / is_4k query as the channel filter. A changed
// filter queues a fetch and the answer is flagged as loading until it lands.
func Channels(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Has("tier") || q.Has("is_4k") {
			f, err := domain.ParseChannelFilter(q.Get("tier"), q.Get("is_4k"))
			if err != nil {
				writeMessage(w, http.StatusBadRequest, err.Error())
				return
			}
			changed := d.Console.SetFilter(f)
			view := d.Console.Channels()
			view.Loading = view.Loading || changed
			writeJSON(w, http.StatusOK, view)
			return
		}
		writeJSON(w, http.StatusOK, d.Console.Channels())
	}
}

func Alerts(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, err := domain.ParseAlertFilter(r.URL.Query().Get("filter"))
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, d.Console.Alerts(f))
	}
}

func AcknowledgeAlert(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := d.Console.AcknowledgeAlert(r.Context(), id); err != nil {
			writeError(w, d, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Alert acknowledged")
	}
}

func ResolveAlert(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		if err := d.Console.ResolveAlert(r.Context(), id); err != nil {
			writeError(w, d, r, err)
			return
		}
		writeMessage(w, http.StatusOK, "Alert resolved")
	}
}

type inputsResponse struct {
	Inputs     []domain.ProbeInput `json:"inputs"`
	Page       int                 `json:"page"`
	TotalPages int                 `json:"total_pages"`
	Total      int                 `json:"total"`
}

// Inputs is one page of the inputs table: ?q=search&sort=field&desc=true&page=N.
func Inputs(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		query := console.InputQuery{
			Search: q.Get("q"),
			Sort:   q.Get("sort"),
			Page:   1,
		}
		if raw := q.Get("page"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "Invalid page")
				return
			}
			query.Page = n
		}
		if raw := q.Get("desc"); raw != "" {
			b, err := strconv.ParseBool(raw)
			if err != nil {
				writeMessage(w, http.StatusBadRequest, "Invalid desc")
				return
			}
			query.Desc = b
		}

		page, err := d.Console.Inputs(query)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, inputsResponse{
			Inputs:     page.Items,
			Page:       page.Page,
			TotalPages: page.TotalPages,
			Total:      page.Total,
		})
	}
}

type inputResponse struct {
	Input domain.ProbeInput `json:"input"`
}

func Input(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		in, err := d.Console.Input(r.Context(), id)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		writeJSON(w, http.StatusOK, inputResponse{Input: in})
	}
}

// InputSnapshot proxies the input thumbnail.
func InputSnapshot(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}
		thumb, err := d.Console.Snapshot(r.Context(), id)
		if err != nil {
			writeError(w, d, r, err)
			return
		}
		ct := thumb.ContentType
		if ct == "" {
			ct = "image/jpeg"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("Content-Length", strconv.Itoa(len(thumb.Data)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(thumb.Data)
	}
}
