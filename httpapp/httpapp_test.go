package httpapp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func TestHealthzAndRecovery(t *testing.T) {
	app := New(zap.NewNop(), Options{Host: "127.0.0.1", Port: 0}, func(r chi.Router) {
		r.Get("/boom", func(http.ResponseWriter, *http.Request) {
			panic("boom")
		})
	})

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("unexpected healthz response: %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("panic must become 500, got %d", rec.Code)
	}
}

func TestMetricsRouteOnlyWhenConfigured(t *testing.T) {
	app := New(zap.NewNop(), Options{}, func(chi.Router) {})
	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unexpected status without metrics: %d", rec.Code)
	}

	called := false
	app = New(zap.NewNop(), Options{Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	})}, func(chi.Router) {})
	app.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !called {
		t.Fatalf("metrics handler not mounted")
	}
}
