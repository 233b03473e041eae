package service

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetricsServiceDispatchOutcomes(t *testing.T) {
	m := NewMetricsService()
	m.ObserveDispatch("synthesized", 20*time.Millisecond)
	m.ObserveDispatch("synthesized", 30*time.Millisecond)
	m.ObserveDispatch("success", time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(m.dispatchTotal.WithLabelValues("synthesized")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.dispatchTotal.WithLabelValues("success")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Contains(t, rec.Body.String(), `dispatch_outcomes_total{kind="synthesized"} 2`)
}

func TestNilMetricsServiceIsSafe(t *testing.T) {
	var m *MetricsService
	m.ObserveDispatch("success", time.Second)
	m.ObserveHTTPRequest(http.MethodGet, "/", 200, time.Second)
	m.RecordSession("login", "student")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
