// Package server exposes discovery state over HTTP for monitoring.
//
// Routes:
//   - GET /api/services: JSON snapshot of every tracked record
//   - GET /api/version: build version info
//   - GET /ws: websocket stream of state transition events
//   - GET /metrics: Prometheus metrics (when a handler is configured)
//
// The websocket stream is best-effort: a slow client is disconnected
// rather than allowed to stall the broadcast, and events queued while
// the hub is saturated are dropped. Discovery correctness never depends
// on this package; it observes the manager, it does not drive it.
package server
