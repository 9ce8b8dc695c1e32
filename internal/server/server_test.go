package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestRoutes_RegistersEndpoints(t *testing.T) {
	router, ok := Routes().(chi.Routes)
	if !ok {
		t.Fatal("Routes should return a chi router")
	}

	registered := map[string]bool{}
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		registered[method+" "+route] = true
		return nil
	})
	if err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	for _, want := range []string{
		"GET /",
		"POST /documents",
		"POST /parse-document",
		"GET /status/{id}",
		"GET /search",
		"POST /answer",
		"POST /aggregate",
		"GET /metrics",
		"GET /swagger/*",
	} {
		if !registered[want] {
			t.Errorf("route %q not registered", want)
		}
	}
}

func TestRoutes_HealthThroughMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:4000"
	rec := httptest.NewRecorder()

	Routes().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Trace-Id") == "" {
		t.Error("expected a trace id header")
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["message"] != "RAG service is running" {
		t.Errorf("unexpected body %v", body)
	}
}
