// Package middleware provides the HTTP middleware chain for the audio
// toolkit API.
//
// It includes:
//   - Request logging with client IP resolution behind proxies
//   - Prometheus metrics collection per route
//   - Wide-open CORS for browser clients
//   - Per-client-IP rate limiting
//   - An admission gate bounding concurrent processing requests
package middleware
