package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"golang.org/x/time/rate"
)

func TestIsValidBearerToken(t *testing.T) {
	log := logger_i.NewLogger("middleware test")
	tests := []struct {
		name   string
		header string
		token  string
		want   bool
	}{
		{"auth disabled", "", "", true},
		{"valid", "Bearer s3cret", "s3cret", true},
		{"missing header", "", "s3cret", false},
		{"wrong scheme", "Basic s3cret", "s3cret", false},
		{"wrong token", "Bearer nope", "s3cret", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidBearerToken(tt.header, tt.token, log); got != tt.want {
				t.Errorf("IsValidBearerToken(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	defer Init("")

	var sawTrace string
	next := func(w http.ResponseWriter, r *http.Request) {
		sawTrace, _ = r.Context().Value(config.TRACE_ID_KEY).(string)
		w.WriteHeader(http.StatusNoContent)
	}
	handler := Wrap(next)

	tests := []struct {
		name       string
		token      string
		header     string
		traceId    string
		remote     string
		wantStatus int
	}{
		{name: "open api passes through", remote: "10.0.0.1:1000", wantStatus: http.StatusNoContent},
		{name: "trace id is kept", traceId: "trace-abc", remote: "10.0.0.2:1000", wantStatus: http.StatusNoContent},
		{name: "valid token", token: "s3cret", header: "Bearer s3cret", remote: "10.0.0.3:1000", wantStatus: http.StatusNoContent},
		{name: "missing token", token: "s3cret", remote: "10.0.0.4:1000", wantStatus: http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Init(tt.token)
			sawTrace = ""
			req := httptest.NewRequest(http.MethodGet, "/search", nil)
			req.RemoteAddr = tt.remote
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.traceId != "" {
				req.Header.Set("X-Trace-Id", tt.traceId)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			responseTrace := rec.Header().Get("X-Trace-Id")
			if responseTrace == "" {
				t.Errorf("response has no X-Trace-Id header")
			}
			if tt.traceId != "" && responseTrace != tt.traceId {
				t.Errorf("X-Trace-Id = %q, want %q", responseTrace, tt.traceId)
			}
			if tt.wantStatus == http.StatusNoContent && sawTrace != responseTrace {
				t.Errorf("handler saw trace %q, response carried %q", sawTrace, responseTrace)
			}
		})
	}
}

func TestWrap_RateLimited(t *testing.T) {
	handler := Wrap(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	limited := 0
	for i := 0; i < config.BURST_RATE_LIMIT_PER_SECOND+3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "192.0.2.77:4000"
		rec := httptest.NewRecorder()
		handler(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited == 0 {
		t.Errorf("expected some requests over the burst of %d to be limited", config.BURST_RATE_LIMIT_PER_SECOND)
	}
}

func TestIPRateLimiter_Prune(t *testing.T) {
	l := NewIPRateLimiter(rate.Limit(1), 1)
	l.GetLimiter("a")
	l.GetLimiter("b")
	l.mu.Lock()
	l.ips["a"].lastSeen = time.Now().Add(-time.Hour)
	l.mu.Unlock()

	if removed := l.Prune(time.Minute); removed != 1 {
		t.Errorf("Prune removed %d visitors, want 1", removed)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.ips["b"]; !ok {
		t.Errorf("recent visitor was pruned")
	}
}
