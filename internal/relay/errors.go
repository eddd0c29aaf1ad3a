package relay

import "errors"

var (
	// ErrInvalidCommand indicates a command payload could not be decoded.
	ErrInvalidCommand = errors.New("relay: invalid command")

	// ErrUnknownAction indicates a command named an unsupported action.
	ErrUnknownAction = errors.New("relay: unknown action")

	// ErrHandlerClosed indicates a command arrived after the handler was
	// closed for shutdown.
	ErrHandlerClosed = errors.New("relay: command handler closed")

	// ErrStartRejected indicates the loop refused to start because the
	// setpoint or the period is unset.
	ErrStartRejected = errors.New("relay: start rejected, parameters not configured")
)
