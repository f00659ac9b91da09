package httpserver

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tally/internal/config"
	"github.com/MrSnakeDoc/tally/internal/console"
	"github.com/MrSnakeDoc/tally/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tally/internal/logger"
	"github.com/MrSnakeDoc/tally/internal/monitorapi"
	"github.com/MrSnakeDoc/tally/internal/profile"
	redisstore "github.com/MrSnakeDoc/tally/internal/store/redis"
)

// backend is a fake monitoring API that records the calls it receives.
type backend struct {
	mu     sync.Mutex
	calls  []string
	bodies map[string]string
	mux    *http.ServeMux

	// when set, a PUT signals entered and waits for release
	entered chan struct{}
	release chan struct{}
}

func newBackend(t *testing.T) (*backend, *monitorapi.Client) {
	t.Helper()
	b := &backend{mux: http.NewServeMux(), bodies: map[string]string{}}

	reply := func(status int, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = io.WriteString(w, body)
		}
	}

	b.mux.Handle("GET /api/v1/channels", reply(200, `{"channels":[
		{"channel_id":1,"channel_code":"NEWS","channel_name":"News","tier":1,"is_4k":true,"enabled":true},
		{"channel_id":2,"channel_code":"SPORT","channel_name":"Sport","tier":2,"is_4k":false,"enabled":false}]}`))
	b.mux.Handle("GET /api/v1/alerts/active", reply(200, `{"alerts":[
		{"alert_id":10,"alert_type":"CC_ERROR","severity":"CRITICAL","message":"cc","acknowledged":false,"created_at":"2026-05-01T10:00:00"},
		{"alert_id":11,"alert_type":"PCR","severity":"MINOR","message":"pcr","acknowledged":true,"created_at":"2026-05-01T09:00:00"}]}`))
	b.mux.Handle("GET /api/v1/inputs", reply(200, `{"inputs":[
		{"input_id":3,"input_name":"feed-a","input_url":"udp://239.1.1.1:5000","input_type":"MPEGTS_UDP","probe_id":1,"is_primary":true,"enabled":true}]}`))
	b.mux.Handle("GET /api/v1/inputs/{id}", reply(200, `{"input":
		{"input_id":7,"input_name":"remote","input_url":"http://origin/a.ts","input_type":"HTTP","probe_id":2,"is_primary":false,"enabled":true}}`))
	b.mux.Handle("GET /api/v1/health", reply(200, `{"status":"healthy","database":"connected"}`))
	b.mux.HandleFunc("POST /api/v1/alerts/{id}/acknowledge", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") == "99" {
			reply(404, `{"status":"error","message":"Alert not found"}`)(w, r)
			return
		}
		reply(200, `{"message":"Alert acknowledged"}`)(w, r)
	})
	b.mux.Handle("POST /api/v1/alerts/{id}/resolve", reply(200, `{"message":"Alert resolved"}`))
	b.mux.Handle("POST /api/v1/inputs", reply(201, `{"input_id":42,"message":"Input created"}`))
	b.mux.Handle("PUT /api/v1/inputs/{id}", reply(400, `{"message":"Duplicate input_url"}`))
	b.mux.Handle("DELETE /api/v1/inputs/{id}", reply(200, `{"message":"Input deleted"}`))
	b.mux.HandleFunc("GET /api/v1/inputs/{id}/snapshot", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.Path
		b.mu.Lock()
		b.calls = append(b.calls, key)
		b.bodies[key] = string(body)
		entered, release := b.entered, b.release
		b.mu.Unlock()
		if r.Method == http.MethodPut && entered != nil {
			entered <- struct{}{}
			<-release
		}
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	return b, monitorapi.New(monitorapi.Options{BaseURL: srv.URL + "/api/v1", Timeout: 2 * time.Second}, logger.NewNop())
}

func (b *backend) count(call string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (b *backend) body(call string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bodies[call]
}

type harness struct {
	t       *testing.T
	backend *backend
	console *console.Controller
	router  http.Handler
}

type option func(*config.Config, *deps.Deps, *console.Options)

func newHarness(t *testing.T, profileName string, opts ...option) *harness {
	t.Helper()
	b, client := newBackend(t)

	p, err := profile.Builtin().Get(profileName)
	require.NoError(t, err)

	cfg := &config.Config{
		RequestTimeout:  5 * time.Second,
		RateLimitBurst:  100,
		RateLimitPerMin: 600,
	}
	cfg.Operator = "night-shift"
	d := deps.Deps{
		Logger:    logger.NewNop(),
		StartTime: time.Now().Add(-time.Minute),
		Version:   "test",
	}
	copts := console.Options{Operator: cfg.Operator, Profile: p}
	for _, o := range opts {
		o(cfg, &d, &copts)
	}

	c := console.New(client, copts, logger.NewNop())
	t.Cleanup(c.Stop)
	d.Console = c

	return &harness{t: t, backend: b, console: c, router: NewRouter(cfg, d.Logger, d)}
}

func (h *harness) refresh() {
	h.t.Helper()
	rep := h.console.Refresh(context.Background())
	require.True(h.t, rep.OK(), "refresh failed: %+v", rep)
}

func (h *harness) do(method, target, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), "body: %s", rec.Body.String())
	return v
}

type message struct {
	Message string `json:"message"`
}

func TestHealthz(t *testing.T) {
	h := newHarness(t, profile.Standard)

	rec := h.do(http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Greater(t, body["uptime_seconds"].(float64), 59.0)
}

func TestReadyzWaitsForFirstRefresh(t *testing.T) {
	h := newHarness(t, profile.Standard)

	assert.Equal(t, http.StatusServiceUnavailable, h.do(http.MethodGet, "/readyz", "").Code)

	h.refresh()

	rec := h.do(http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[map[string]bool](t, rec)["ready"])
}

func TestOverview(t *testing.T) {
	h := newHarness(t, profile.Standard)
	h.refresh()

	rec := h.do(http.MethodGet, "/api/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TotalChannels   int `json:"total_channels"`
		EnabledChannels int `json:"enabled_channels"`
		ActiveAlerts    int `json:"active_alerts"`
		Severity        struct {
			Critical int `json:"critical"`
			Minor    int `json:"minor"`
		} `json:"severity"`
		Tiers        []map[string]int `json:"tiers"`
		RecentAlerts []map[string]any `json:"recent_alerts"`
		Profile      string           `json:"profile"`
		Ready        bool             `json:"ready"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, 2, body.TotalChannels)
	assert.Equal(t, 1, body.EnabledChannels)
	assert.Equal(t, 2, body.ActiveAlerts)
	assert.Len(t, body.Tiers, 3)
	require.Len(t, body.RecentAlerts, 2)
	assert.EqualValues(t, 10, body.RecentAlerts[0]["alert_id"])
	assert.Equal(t, profile.Standard, body.Profile)
	assert.True(t, body.Ready)
}

func TestChannelsFilter(t *testing.T) {
	h := newHarness(t, profile.Standard)
	h.refresh()

	rec := h.do(http.MethodGet, "/api/channels", "")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[map[string]any](t, rec)
	assert.Len(t, all["channels"], 2)
	assert.Equal(t, false, all["loading"])

	rec = h.do(http.MethodGet, "/api/channels?tier=1&is_4k=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	filtered := decode[map[string]any](t, rec)
	assert.Equal(t, true, filtered["loading"], "a changed filter is loading until the next fetch")
	assert.Equal(t, map[string]any{"tier": float64(1), "is_4k": true}, filtered["filter"])

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/channels?tier=9", "").Code)
}

func TestAlertsTabs(t *testing.T) {
	h := newHarness(t, profile.Standard)
	h.refresh()

	rec := h.do(http.MethodGet, "/api/alerts?filter=unack", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Alerts []struct {
			ID int `json:"alert_id"`
		} `json:"alerts"`
		Counts map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Alerts, 1)
	assert.Equal(t, 10, body.Alerts[0].ID)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/alerts?filter=loud", "").Code)
}

func TestAcknowledgeAlert(t *testing.T) {
	h := newHarness(t, profile.Basic)
	h.refresh()

	rec := h.do(http.MethodPost, "/api/alerts/10/acknowledge", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Contains(t, h.backend.body("POST /api/v1/alerts/10/acknowledge"), `"acknowledged_by":"night-shift"`)
	assert.Equal(t, 2, h.backend.count("GET /api/v1/alerts/active"), "success re-fetches the alerts")
}

func TestAcknowledgeAlertPassesServerMessage(t *testing.T) {
	h := newHarness(t, profile.Standard)

	rec := h.do(http.MethodPost, "/api/alerts/99/acknowledge", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Alert not found", decode[message](t, rec).Message)

	notes := decode[map[string][]console.Notification](t, h.do(http.MethodGet, "/api/notifications", ""))
	require.Len(t, notes["notifications"], 1)
	assert.Equal(t, "Error: Alert not found", notes["notifications"][0].Message)
}

func TestAcknowledgeInvalidID(t *testing.T) {
	h := newHarness(t, profile.Standard)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/alerts/abc/acknowledge", "").Code)
	assert.Zero(t, h.backend.count("POST /api/v1/alerts/abc/acknowledge"))
}

func TestCreateInput(t *testing.T) {
	h := newHarness(t, profile.Standard)

	rec := h.do(http.MethodPost, "/api/inputs",
		`{"input_name":"feed-b","input_url":"udp://239.1.1.2:5000","input_port":5000,"is_primary":false,"bitrate_mbps":null}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.EqualValues(t, 42, decode[map[string]any](t, rec)["input_id"])

	sent := map[string]any{}
	require.NoError(t, json.Unmarshal([]byte(h.backend.body("POST /api/v1/inputs")), &sent))
	assert.Equal(t, "feed-b", sent["input_name"])
	assert.Equal(t, "MPEGTS_UDP", sent["input_type"], "defaults of a fresh form")
	assert.EqualValues(t, 5000, sent["input_port"])
	assert.Equal(t, false, sent["is_primary"])
	assert.Nil(t, sent["bitrate_mbps"])

	assert.Equal(t, string(console.FormClosed), decode[map[string]any](t, h.do(http.MethodGet, "/api/form", ""))["state"])
}

func TestCreateInputMissingFieldSendsNothing(t *testing.T) {
	h := newHarness(t, profile.Standard)

	rec := h.do(http.MethodPost, "/api/inputs", `{"input_url":"udp://239.1.1.2:5000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, h.backend.count("POST /api/v1/inputs"))
}

func TestCreateInputRejectsBadBody(t *testing.T) {
	h := newHarness(t, profile.Standard)

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/inputs", `not json`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/inputs", `{"input_name":["a"]}`).Code)
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/inputs", `{"colour":"red"}`).Code)
	assert.Zero(t, h.backend.count("POST /api/v1/inputs"))
}

func TestUpdateInputKeepsDraftOnFailure(t *testing.T) {
	h := newHarness(t, profile.Standard)
	h.refresh()

	rec := h.do(http.MethodPut, "/api/inputs/3", `{"input_name":"feed-a2"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Duplicate input_url", decode[message](t, rec).Message)

	form := decode[console.FormView](t, h.do(http.MethodGet, "/api/form", ""))
	assert.Equal(t, console.FormOpen, form.State)
	assert.Equal(t, console.ModeEdit, form.Mode)
	assert.Equal(t, "feed-a2", form.Draft.Name)
	assert.Equal(t, "udp://239.1.1.1:5000", form.Draft.URL, "pre-populated from the existing input")
	assert.Equal(t, "Duplicate input_url", form.Error)

	rec = h.do(http.MethodDelete, "/api/form", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, console.FormClosed, decode[console.FormView](t, rec).State)
}

func TestConcurrentCreateCannotHijackUpdate(t *testing.T) {
	h := newHarness(t, profile.Standard)
	h.refresh()

	h.backend.mu.Lock()
	h.backend.entered = make(chan struct{}, 1)
	h.backend.release = make(chan struct{})
	h.backend.mu.Unlock()

	done := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		done <- h.do(http.MethodPut, "/api/inputs/3", `{"input_name":"feed-a2"}`)
	}()

	select {
	case <-h.backend.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("update never reached the monitoring API")
	}

	rec := h.do(http.MethodPost, "/api/inputs", `{"input_name":"feed-b","input_url":"udp://239.1.1.2:5000"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, rec.Body.String())
	close(h.backend.release)

	put := <-done
	assert.Equal(t, http.StatusBadRequest, put.Code)
	assert.Equal(t, "Duplicate input_url", decode[message](t, put).Message)

	assert.Equal(t, 1, h.backend.count("PUT /api/v1/inputs/3"))
	assert.Zero(t, h.backend.count("POST /api/v1/inputs"), "the update must not turn into a create")

	form := decode[console.FormView](t, h.do(http.MethodGet, "/api/form", ""))
	assert.Equal(t, console.ModeEdit, form.Mode)
	assert.Equal(t, 3, form.InputID)
	assert.Equal(t, "feed-a2", form.Draft.Name)
}

func TestCreateReplacesFailedDraft(t *testing.T) {
	h := newHarness(t, profile.Standard)
	h.refresh()

	require.Equal(t, http.StatusBadRequest, h.do(http.MethodPut, "/api/inputs/3", `{"input_name":"feed-a2"}`).Code)

	rec := h.do(http.MethodPost, "/api/inputs", `{"input_name":"feed-b","input_url":"udp://239.1.1.2:5000"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, 1, h.backend.count("POST /api/v1/inputs"))
	assert.Equal(t, console.FormClosed, decode[console.FormView](t, h.do(http.MethodGet, "/api/form", "")).State)
}

func TestInputFormNeedsProfile(t *testing.T) {
	h := newHarness(t, profile.Basic)

	rec := h.do(http.MethodPost, "/api/inputs", `{"input_name":"x","input_url":"udp://1.2.3.4:1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/inputs/3/snapshot", "").Code)
	assert.Zero(t, h.backend.count("POST /api/v1/inputs"))
}

func TestDeleteInputNeedsConfirmation(t *testing.T) {
	h := newHarness(t, profile.Standard)

	rec := h.do(http.MethodDelete, "/api/inputs/3", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, h.backend.count("DELETE /api/v1/inputs/3"), "no request without confirmation")

	rec = h.do(http.MethodDelete, "/api/inputs/3?confirm=true", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, h.backend.count("DELETE /api/v1/inputs/3"))
}

func TestInputsList(t *testing.T) {
	h := newHarness(t, profile.Standard)
	h.refresh()

	rec := h.do(http.MethodGet, "/api/inputs?q=FEED&page=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Len(t, body["inputs"], 1)
	assert.EqualValues(t, 1, body["total_pages"])

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodGet, "/api/inputs?page=two", "").Code)
}

func TestInputFallsBackToAPI(t *testing.T) {
	h := newHarness(t, profile.Standard)
	h.refresh()

	rec := h.do(http.MethodGet, "/api/inputs/7", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Input struct {
			Name string `json:"input_name"`
		} `json:"input"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "remote", body.Input.Name)
}

func TestInputSnapshot(t *testing.T) {
	h := newHarness(t, profile.Standard)

	rec := h.do(http.MethodGet, "/api/inputs/3/snapshot", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte{0xff, 0xd8, 0xff, 0xe0}, rec.Body.Bytes())
}

func TestDebugNeedsInspector(t *testing.T) {
	h := newHarness(t, profile.Standard)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/debug", "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPut, "/api/debug", `{"enabled":true}`).Code)

	h = newHarness(t, profile.Inspector)
	rec := h.do(http.MethodPut, "/api/debug", `{"enabled":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode[map[string]bool](t, rec)["enabled"])
}

func TestMetricsWatch(t *testing.T) {
	h := newHarness(t, profile.Standard)

	rec := h.do(http.MethodGet, "/api/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, rec)["watching"])

	rec = h.do(http.MethodPut, "/api/metrics/watch/3", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, true, decode[map[string]any](t, rec)["watching"])

	rec = h.do(http.MethodDelete, "/api/metrics/watch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode[map[string]any](t, h.do(http.MethodGet, "/api/metrics", ""))["watching"])
}

func TestNotificationsDismiss(t *testing.T) {
	h := newHarness(t, profile.Standard)
	h.do(http.MethodPost, "/api/alerts/10/resolve", "")

	notes := decode[map[string][]console.Notification](t, h.do(http.MethodGet, "/api/notifications", ""))["notifications"]
	require.Len(t, notes, 1)
	assert.Equal(t, "Alert resolved", notes[0].Message)

	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, "/api/notifications/"+notes[0].ID, "").Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/notifications/"+notes[0].ID, "").Code)
}

func TestRefreshQueuesOnce(t *testing.T) {
	h := newHarness(t, profile.Standard)

	assert.Equal(t, http.StatusAccepted, h.do(http.MethodPost, "/api/refresh", "").Code)
	rec := h.do(http.MethodPost, "/api/refresh", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Empty(t, rec.Header().Get("Retry-After"), "a queued refresh is not the rate limiter")
}

func TestMutatingRoutesAreRateLimited(t *testing.T) {
	h := newHarness(t, profile.Standard, func(cfg *config.Config, _ *deps.Deps, _ *console.Options) {
		cfg.RateLimitBurst = 1
		cfg.RateLimitPerMin = 1
	})

	assert.Equal(t, http.StatusAccepted, h.do(http.MethodPost, "/api/refresh", "").Code)
	rec := h.do(http.MethodPost, "/api/alerts/10/resolve", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Zero(t, h.backend.count("POST /api/v1/alerts/10/resolve"))

	// reads are not limited
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/overview", "").Code)
}

func TestAllowedCIDRS(t *testing.T) {
	h := newHarness(t, profile.Standard, func(_ *config.Config, d *deps.Deps, _ *console.Options) {
		d.AllowedCIDRS = []string{"10.0.0.0/8"}
	})

	// httptest requests come from 192.0.2.1
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/readyz", "").Code)
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/refresh", "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "").Code)
}

func TestInfraAndActionLog(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := redisstore.NewStore(client, 0)

	h := newHarness(t, profile.Standard, func(_ *config.Config, d *deps.Deps, o *console.Options) {
		d.RedisClient = client
		d.Actions = store
		o.Auditor = store
	})
	h.refresh()
	require.NoError(t, h.console.RefreshHealth(context.Background()))

	var infra struct {
		Mode       string `json:"mode"`
		Components map[string]struct {
			OK   bool   `json:"ok"`
			Mode string `json:"mode"`
		} `json:"components"`
	}
	rec := h.do(http.MethodGet, "/api/infra", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infra))
	assert.Equal(t, "operational", infra.Mode)
	assert.True(t, infra.Components["monitoring_api"].OK)
	assert.True(t, infra.Components["redis"].OK)
	assert.Equal(t, "live", infra.Components["console"].Mode)

	require.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/alerts/10/acknowledge", "").Code)

	rec = h.do(http.MethodGet, "/api/actions?limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var log struct {
		Actions []struct {
			Action   string `json:"action"`
			TargetID int    `json:"target_id"`
			Operator string `json:"operator"`
			OK       bool   `json:"ok"`
		} `json:"actions"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &log))
	require.Len(t, log.Actions, 1)
	assert.Equal(t, "acknowledge", log.Actions[0].Action)
	assert.Equal(t, 10, log.Actions[0].TargetID)
	assert.Equal(t, "night-shift", log.Actions[0].Operator)
	assert.True(t, log.Actions[0].OK)
}

func TestInfraWithoutRedis(t *testing.T) {
	h := newHarness(t, profile.Standard)

	rec := h.do(http.MethodGet, "/api/infra", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "critical", body["mode"], "no health report yet")

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/actions", "").Code)
}

func TestPrometheusEndpoint(t *testing.T) {
	h := newHarness(t, profile.Standard)
	h.refresh()

	rec := h.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tally_")
}
