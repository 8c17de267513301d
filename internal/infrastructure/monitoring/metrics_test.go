package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsTwiceDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics()
		NewMetrics()
	})
}

func TestProvisionLifecycle(t *testing.T) {
	m := NewMetrics()

	m.ProvisionStarted()
	assert.Equal(t, int64(1), m.Snapshot().InFlight)

	m.ProvisionFinished(OutcomeSuccess, 2*time.Second)
	m.ProvisionStarted()
	m.ProvisionFinished(OutcomeCaptureFailed, 30*time.Second)
	m.IncTeardowns()
	m.IncSessionsRecorded()

	snap := m.Snapshot()
	assert.Equal(t, int64(0), snap.InFlight)
	assert.Equal(t, int64(1), snap.Provisions[OutcomeSuccess])
	assert.Equal(t, int64(1), snap.Provisions[OutcomeCaptureFailed])
	assert.Equal(t, int64(1), snap.Teardowns)
	assert.Equal(t, int64(1), snap.SessionsLogged)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.ProvisionsTotal.WithLabelValues(OutcomeSuccess)))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.ProvisionsInFlight))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.TeardownsTotal))
}

func TestSnapshotIsACopy(t *testing.T) {
	m := NewMetrics()
	m.ProvisionStarted()
	m.ProvisionFinished(OutcomeSuccess, time.Second)

	snap := m.Snapshot()
	snap.Provisions[OutcomeSuccess] = 99
	assert.Equal(t, int64(1), m.Snapshot().Provisions[OutcomeSuccess])
}

func TestMiddlewareRecordsRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/vm/create", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/vm/create?api_key=secret", nil))

	assert.Equal(t, float64(1), testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/vm/create", "400")))
	snap := m.Snapshot()
	assert.Equal(t, int64(1), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
}

func TestHandlerExposesMetrics(t *testing.T) {
	m := NewMetrics()
	m.IncAuthFailures()

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hydrenix_auth_failures_total 1")
	assert.Contains(t, w.Body.String(), "hydrenix_uptime_seconds")
}
