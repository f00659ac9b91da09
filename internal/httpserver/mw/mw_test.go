package mw

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MrSnakeDoc/tally/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func serve(h http.Handler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestRateLimit(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	h := RateLimit(RateLimitConfig{
		Burst:        2,
		RefillPerMin: 60,
		Now:          func() time.Time { return now },
	})(okHandler)

	req := func(ip string) *http.Request {
		r := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
		r.RemoteAddr = ip + ":5555"
		return r
	}

	for i := range 2 {
		if rec := serve(h, req("10.0.0.1")); rec.Code != http.StatusNoContent {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	rec := serve(h, req("10.0.0.1"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "1" {
		t.Errorf("Retry-After = %q, want 1", got)
	}
	if !strings.Contains(rec.Body.String(), `"message"`) {
		t.Errorf("body = %q, want a message envelope", rec.Body.String())
	}

	// another client has its own bucket
	if rec := serve(h, req("10.0.0.2")); rec.Code != http.StatusNoContent {
		t.Errorf("other client: status = %d", rec.Code)
	}

	// one token back after a second at 60/min
	now = now.Add(time.Second)
	if rec := serve(h, req("10.0.0.1")); rec.Code != http.StatusNoContent {
		t.Errorf("after refill: status = %d", rec.Code)
	}
}

func TestAllowOnlyCIDRS(t *testing.T) {
	h := AllowOnlyCIDRS([]string{"192.168.0.0/16", "bogus"}, false, logger.NewNop())(okHandler)

	tests := []struct {
		remote string
		want   int
	}{
		{"192.168.10.4:1000", http.StatusNoContent},
		{"8.8.8.8:1000", http.StatusForbidden},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/readyz", nil)
		r.RemoteAddr = tt.remote
		if rec := serve(h, r); rec.Code != tt.want {
			t.Errorf("%s: status = %d, want %d", tt.remote, rec.Code, tt.want)
		}
	}
}

func TestAllowOnlyCIDRSPassthrough(t *testing.T) {
	h := AllowOnlyCIDRS(nil, false, logger.NewNop())(okHandler)
	r := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	r.RemoteAddr = "8.8.8.8:1"
	if rec := serve(h, r); rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want passthrough", rec.Code)
	}
}

func TestEnforceHost(t *testing.T) {
	h := EnforceHost([]string{"console.local", "*.noc.example"}, logger.NewNop())(okHandler)

	tests := []struct {
		host string
		want int
	}{
		{"console.local", http.StatusNoContent},
		{"console.local:8080", http.StatusNoContent},
		{"CONSOLE.LOCAL", http.StatusNoContent},
		{"wall.noc.example", http.StatusNoContent},
		{"noc.example", http.StatusForbidden},
		{"evil.local", http.StatusForbidden},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/api/overview", nil)
		r.Host = tt.host
		if rec := serve(h, r); rec.Code != tt.want {
			t.Errorf("Host %q: status = %d, want %d", tt.host, rec.Code, tt.want)
		}
	}
}

func TestLogCapturesStatus(t *testing.T) {
	h := Log(logger.NewNop(), false)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Errorf("got %d %q", rec.Code, rec.Body.String())
	}
}
