package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSimulation(t *testing.T) {
	m := New("test")
	require.NoError(t, m.Register(prometheus.NewRegistry()))

	m.RecordSimulation("monte_carlo", "flat", 1000, 20*time.Millisecond, nil)
	m.RecordSimulation("monte_carlo", "flat", 1000, 20*time.Millisecond, nil)
	m.RecordSimulation("rate_model", "vasicek", 10, time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("monte_carlo", "flat", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SimulationsTotal.WithLabelValues("rate_model", "vasicek", "error")))
}

func TestRecordHTTPRequest(t *testing.T) {
	m := New("test")
	require.NoError(t, m.Register(prometheus.NewRegistry()))

	m.RecordHTTPRequest(http.MethodPost, "/api/price/monte-carlo", 200, time.Millisecond, 120)
	m.RecordHTTPRequest(http.MethodGet, "", 404, time.Millisecond, 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/price/monte-carlo", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "404")))
}

func TestCacheAndRateLimitCounters(t *testing.T) {
	m := New("test")
	require.NoError(t, m.Register(prometheus.NewRegistry()))

	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordCacheLookup(false)
	m.RecordRateLimited()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitedTotal))
}

func TestRegister_Twice(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("test")
	require.NoError(t, m.Register(reg))
	assert.Error(t, New("test").Register(reg))
}

func TestHandler_ExposesRegisteredMetrics(t *testing.T) {
	m := New("test")
	require.NoError(t, m.Register(prometheus.NewRegistry()))
	m.RecordRateLimited()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "optionpricing_test_rate_limited_total 1")
}
