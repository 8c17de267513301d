// Package server assembles the node: configuration, logging, metrics,
// tracing, the API key store, the session ledger, the docker runtime and the
// provisioning orchestrator, behind one gin router.
//
// Routes:
//   - GET /health, GET /metrics: unauthenticated
//   - GET /status, GET /vm/create, GET /vm/list: require ?api_key=
package server
