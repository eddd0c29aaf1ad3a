// Package audit records control-loop lifecycle events in the
// control_events table and serves them back, most recent first.
//
// Events are written by a Recorder, which accepts them without blocking
// (the control loop reports transitions while holding its own lock) and
// persists them from a single background goroutine.
package audit
