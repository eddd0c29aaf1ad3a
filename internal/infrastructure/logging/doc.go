// Package logging provides structured logging for Gray Logic Thermal.
//
// This package wraps Go's standard log/slog package. Every entry carries
// the service name, the build version and the site ID; component loggers
// add a "component" field.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, cfg.Site.ID, "1.0.0")
//	loop.SetLogger(logger.Component("pid"))
//	logger.Info("control loop started", "setpoint", 225.0)
//
// Never log secrets, tokens or passwords.
package logging
