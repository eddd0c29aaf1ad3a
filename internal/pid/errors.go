package pid

import "errors"

// ErrNotConfigured is reported when the loop is started without a setpoint
// or a period. Start returns false; the error is logged and recorded.
var ErrNotConfigured = errors.New("pid: setpoint and period must be set before starting")
