package device

import "errors"

// Domain errors for the device package.
var (
	// ErrInvalidBaseURL is returned when the device base URL cannot be parsed.
	ErrInvalidBaseURL = errors.New("device: invalid base URL")

	// ErrMissingTemperature is returned when a temperature reading has no TempF field.
	ErrMissingTemperature = errors.New("device: reading has no TempF")

	// ErrInvalidInterval is returned when registering a job with a non-positive interval.
	ErrInvalidInterval = errors.New("device: interval must be positive")
)
