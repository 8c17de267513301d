// Package monitoring exposes Prometheus metrics for the node.
//
// Metrics live on a private registry served by Metrics.Handler at /metrics:
//   - hydrenix_http_requests_total / _request_duration_seconds
//   - hydrenix_provisions_total{outcome} / _provision_duration_seconds
//   - hydrenix_provisions_in_flight, hydrenix_teardowns_total
//   - hydrenix_sessions_recorded_total, hydrenix_ledger_errors_total
//   - hydrenix_auth_failures_total, hydrenix_uptime_seconds
//
// Snapshot returns the same counters as plain values for /health.
package monitoring
