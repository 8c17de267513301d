// Package http provides the node's REST handlers on top of gin.
//
// Endpoints:
//   - GET /status: liveness for authenticated callers
//   - GET /vm/create?ram=&cores=[&owner=]: provision a sandbox and return
//     its connection command
//   - GET /vm/list: sessions recorded in the ledger
//   - GET /health: unauthenticated health with counters
//
// Authentication is applied by the router (see middleware.RequireAPIKey), not
// by the handlers themselves.
//
// Example Usage:
//
//	h := http.NewHandlers(orchestrator, sessions, "hydrenix", logger)
//	authed.GET("/vm/create", h.CreateVM)
package http
