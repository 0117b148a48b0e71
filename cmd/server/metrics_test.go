package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCountRequests_UsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(countRequests)
	r.Get("/quotes/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	counter := requestsTotal.WithLabelValues("GET", "/quotes/{id}", "200")
	before := testutil.ToFloat64(counter)

	for _, path := range []string{"/quotes/7", "/quotes/8"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Fatalf("expected 2 counted requests for the pattern, got %v", got)
	}
}

func TestCountRequests_DefaultsStatusToOK(t *testing.T) {
	r := chi.NewRouter()
	r.Use(countRequests)
	// A handler that never writes still leaves the connection with a 200.
	r.Get("/health", func(http.ResponseWriter, *http.Request) {})

	counter := requestsTotal.WithLabelValues("GET", "/health", "200")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	r.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Fatalf("expected implicit 200 to be counted, got %v", got)
	}
}
