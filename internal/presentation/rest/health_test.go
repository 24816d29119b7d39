package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, h *HealthHandler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]any
	if w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestLiveness(t *testing.T) {
	w, body := serve(t, NewHealthHandler("repayment-service", nil, nil, slog.Default()), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "repayment-service", body["service"])
}

func TestReadiness(t *testing.T) {
	ok := func(context.Context) error { return nil }
	down := func(context.Context) error { return errors.New("postgres: health check: refused") }

	w, body := serve(t, NewHealthHandler("svc", map[string]ReadinessCheck{"postgres": ok}, nil, slog.Default()), "/readyz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ready", body["status"])

	w, body = serve(t, NewHealthHandler("svc", map[string]ReadinessCheck{"postgres": down, "redis": ok}, nil, slog.Default()), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "not_ready", body["status"])
	failures, _ := body["failures"].(map[string]any)
	assert.Contains(t, failures, "postgres")
	assert.NotContains(t, failures, "redis")
}

func TestMetricsRoute(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("repayment_loans_completed_total 1\n"))
	})
	w, _ := serve(t, NewHealthHandler("svc", nil, metrics, slog.Default()), "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "repayment_loans_completed_total")

	w, _ = serve(t, NewHealthHandler("svc", nil, nil, slog.Default()), "/metrics")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
