package observability

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveDBPool(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveDBPool(sql.DBStats{InUse: 3, Idle: 2})
	assert.Equal(t, 3.0, testutil.ToFloat64(m.DBConnectionsActive))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DBConnectionsIdle))

	// Gauges track the pool, they do not accumulate.
	m.ObserveDBPool(sql.DBStats{InUse: 1, Idle: 4})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DBConnectionsActive))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.DBConnectionsIdle))
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	handler := HTTPMetricsMiddleware(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/clubs", nil))

	require.Equal(t, http.StatusTeapot, rec.Code)
	counter, err := m.HTTPRequestsTotal.GetMetricWithLabelValues("GET", "/clubs", "418")
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(counter))
}
