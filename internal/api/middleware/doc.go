// Package middleware provides the HTTP middleware of the control API.
//
//   - CORS: cross-origin access for the UI origins, backed by gin-contrib/cors
//   - Guard: origin allowlist and JSON-only bodies for state-changing requests
//   - RateLimit: per-IP token bucket with idle-client cleanup
//   - GlobalRateLimit: one bucket shared by every client
//
// Example Usage:
//
//	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
//	router.Use(middleware.Guard(middleware.DefaultOrigins))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
