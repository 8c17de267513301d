// Package middleware holds the gin middleware chain shared by all routes:
// API-key authentication, CORS and per-IP rate limiting.
package middleware
