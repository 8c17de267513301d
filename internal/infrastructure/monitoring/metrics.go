package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Provisioning outcomes, used as the "outcome" label.
const (
	OutcomeSuccess       = "success"
	OutcomeCreateFailed  = "create_failed"
	OutcomeLaunchFailed  = "launch_failed"
	OutcomeCaptureFailed = "capture_failed"
)

// Metrics holds all Prometheus metrics for the node
type Metrics struct {
	registry *prometheus.Registry

	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Provisioning metrics
	ProvisionsTotal    *prometheus.CounterVec
	ProvisionDuration  *prometheus.HistogramVec
	ProvisionsInFlight prometheus.Gauge
	TeardownsTotal     prometheus.Counter
	SessionsRecorded   prometheus.Counter
	LedgerErrors       prometheus.Counter

	// Auth metrics
	AuthFailures prometheus.Counter

	Uptime    prometheus.GaugeFunc
	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds current counter values for the JSON health endpoint
type Snapshot struct {
	TotalRequests  int64            `json:"total_requests"`
	TotalErrors    int64            `json:"total_errors"`
	Provisions     map[string]int64 `json:"provisions"`
	Teardowns      int64            `json:"teardowns"`
	InFlight       int64            `json:"in_flight"`
	UptimeSeconds  float64          `json:"uptime_seconds"`
	SessionsLogged int64            `json:"sessions_recorded"`
}

// NewMetrics creates a collector on its own registry, so several instances
// (one per test server) never collide on registration.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),
		snapshot:  Snapshot{Provisions: make(map[string]int64)},

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hydrenix_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hydrenix_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"method", "path"},
		),

		ProvisionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hydrenix_provisions_total",
				Help: "Provisioning attempts by outcome",
			},
			[]string{"outcome"},
		),
		ProvisionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "hydrenix_provision_duration_seconds",
				Help:    "Time from request to connection command or failure",
				Buckets: []float64{.5, 1, 2, 5, 10, 20, 30, 45, 60},
			},
			[]string{"outcome"},
		),
		ProvisionsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "hydrenix_provisions_in_flight",
				Help: "Provisioning requests currently running",
			},
		),
		TeardownsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hydrenix_teardowns_total",
				Help: "Sandboxes destroyed after a failed provisioning",
			},
		),
		SessionsRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hydrenix_sessions_recorded_total",
				Help: "Sessions appended to the ledger",
			},
		),
		LedgerErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hydrenix_ledger_errors_total",
				Help: "Ledger appends that failed",
			},
		),
		AuthFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "hydrenix_auth_failures_total",
				Help: "Requests rejected for a missing or wrong API key",
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "hydrenix_uptime_seconds",
			Help: "Node uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry exposes the underlying registry for tests and custom collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.TotalRequests++
	if status != "" && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// ProvisionStarted marks a provisioning request as in flight.
func (m *Metrics) ProvisionStarted() {
	m.ProvisionsInFlight.Inc()
	m.mu.Lock()
	m.snapshot.InFlight++
	m.mu.Unlock()
}

// ProvisionFinished records the outcome of a provisioning request.
func (m *Metrics) ProvisionFinished(outcome string, duration time.Duration) {
	m.ProvisionsInFlight.Dec()
	m.ProvisionsTotal.WithLabelValues(outcome).Inc()
	m.ProvisionDuration.WithLabelValues(outcome).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.InFlight--
	m.snapshot.Provisions[outcome]++
	m.mu.Unlock()
}

// IncTeardowns counts a rollback teardown.
func (m *Metrics) IncTeardowns() {
	m.TeardownsTotal.Inc()
	m.mu.Lock()
	m.snapshot.Teardowns++
	m.mu.Unlock()
}

// IncSessionsRecorded counts a ledger append.
func (m *Metrics) IncSessionsRecorded() {
	m.SessionsRecorded.Inc()
	m.mu.Lock()
	m.snapshot.SessionsLogged++
	m.mu.Unlock()
}

// IncLedgerErrors counts a failed ledger append.
func (m *Metrics) IncLedgerErrors() {
	m.LedgerErrors.Inc()
}

// IncAuthFailures counts a rejected request.
func (m *Metrics) IncAuthFailures() {
	m.AuthFailures.Inc()
}

// Snapshot returns a copy of the current counter values.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := m.snapshot
	snap.Provisions = make(map[string]int64, len(m.snapshot.Provisions))
	for k, v := range m.snapshot.Provisions {
		snap.Provisions[k] = v
	}
	snap.UptimeSeconds = time.Since(m.startTime).Seconds()
	return snap
}
