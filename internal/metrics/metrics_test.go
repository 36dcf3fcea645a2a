package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.Login("password", ResultOK)
	m.Login("password", ResultInvalid)
	m.Login("password", ResultInvalid)
	m.Artifact("exchange", "consume", ResultOK)

	require.Equal(t, 2.0, testutil.ToFloat64(m.logins.WithLabelValues("password", ResultInvalid)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.artifacts.WithLabelValues("exchange", "consume", ResultOK)))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.Login("google", ResultOK)
	m.HTTPStart()
	m.HTTPDone("GET", "/", "200", 0.1)
	require.NoError(t, m.RegisterPool(nil))
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := New()
	m.HTTPStart()
	m.HTTPDone("POST", "/v1/auth/login", "401", 0.01)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `http_requests_total{method="POST",route="/v1/auth/login",status="401"} 1`)
}
