// Package config provides 12-factor configuration management for the node.
//
// Configuration is loaded from environment variables with defaults matching
// Default(). CLI flags on cmd/server override the port and config path.
//
// Configuration Sections:
//   - Server: HTTP listen address
//   - Store: API-key config file and session ledger locations
//   - Sandbox: container runtime, image, privileges, agent command
//   - Capture: connection-string markers and polling bounds
//   - Logging: level and output format
//   - RateLimit: per-IP rate limiting
//
// The API key itself is not configured here; it lives in the JSON file
// managed by the apikey package.
package config
