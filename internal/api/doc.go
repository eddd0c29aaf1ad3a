// Package api implements the operator HTTP API and WebSocket stream for
// the thermal controller.
//
// This package provides:
//   - Parameter read and partial update
//   - Loop control (start, stop, reset)
//   - Control event log queries
//   - A WebSocket stream of parameter snapshots and control events
//   - Middleware stack (request ID, logging, recovery, CORS, body limit)
//
// # Routes
//
//	GET   /api/v1/health
//	GET   /api/v1/params
//	PATCH /api/v1/params
//	POST  /api/v1/control/{action}   action: start, stop, reset
//	GET   /api/v1/events
//	GET   /api/v1/ws
//
// # WebSocket
//
// Every client receives the latest snapshot on connect and then every
// published snapshot in order, as "event" messages on the
// "params.snapshot" channel. Clients may also subscribe to
// "control.event" for loop lifecycle events. Slow clients lose messages
// rather than stall the server.
//
// # Graceful Degradation
//
// The event log is optional; without it GET /events answers 503.
package api
