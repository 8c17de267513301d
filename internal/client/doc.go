// Package client is a Go client for the node's HTTP API, used by nodectl.
//
// Reads (/status, /vm/list) are retried with backoff by a retryablehttp
// transport under resty. Provisioning (/vm/create) is sent exactly once. All
// calls share a client-side rate limiter and a circuit breaker that opens
// after repeated transport failures or 5xx answers; 4xx answers such as a
// wrong API key never trip it.
package client
