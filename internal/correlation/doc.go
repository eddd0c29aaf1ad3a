// Package correlation generates identifiers that tag outbound device requests.
//
// A correlation ID never leaves the process. It appears in log lines and in
// request errors so that a failure can be traced back to the call that
// produced it, including calls that were superseded by a newer request
// against a different endpoint.
//
// Two generators are provided:
//
//   - Random: every ID is independently random (UUID v4).
//   - Serial: a fixed 64-bit namespace in the high bits and a counter in the
//     low bits, so periodic requests of one family group together in logs.
//
// Usage:
//
//	gen := correlation.NewSerial(correlation.NamespaceFor("watchdog-reset"))
//	id := gen.Next()
//	log.Info("feeding watchdog", "correlation_id", id)
package correlation
