package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestMetricsExposeSolves(t *testing.T) {
	m := NewMetrics()
	m.ObserveSolve("relative_depth", "ok", 12)
	m.ObserveSolve("flow_rate", "invalid_input", 0)

	wrapped := m.WrapHandler("calc", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	wrapped.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", nil))

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rr.Body)
	text := string(body)

	for _, want := range []string{
		`channel_solves_total{outcome="ok",target="relative_depth"} 1`,
		`channel_solves_total{outcome="invalid_input",target="flow_rate"} 1`,
		`channel_solve_iterations_count{target="relative_depth"} 1`,
		`http_requests_total{route="calc",status="418"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveSolve("diameter", "ok", 3)
}

func TestRequestLoggerSetsID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mw := RequestLogger(zap.New(core))
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/user/tools/channel/calc", nil))

	if rr.Header().Get(RequestIDHeader) == "" {
		t.Fatal("expected a request id header")
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["status"]; got != int64(http.StatusCreated) {
		t.Fatalf("logged status %v", got)
	}

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))
	if logs.Len() != 1 {
		t.Fatal("health probes must not be logged")
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	h := RequestLogger(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("request id = %q", rr.Header().Get(RequestIDHeader))
	}
}
