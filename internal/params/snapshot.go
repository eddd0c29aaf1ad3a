package params

import "time"

// Snapshot is one immutable view of the control parameters.
type Snapshot struct {
	// Version increases by one with every publication.
	Version uint64 `json:"version"`
	// UpdatedAt is when this snapshot was published.
	UpdatedAt time.Time `json:"updated_at"`

	// Setpoint is the target value. Only meaningful when HasSetpoint is true.
	Setpoint    float64 `json:"setpoint"`
	HasSetpoint bool    `json:"has_setpoint"`

	CurrentValue  float64 `json:"current_value"`
	PreviousValue float64 `json:"previous_value"`

	Gain float64 `json:"gain"`
	Kp   float64 `json:"kp"`
	Ki   float64 `json:"ki"`
	Kd   float64 `json:"kd"`

	// Integral is the accumulated integral term.
	Integral float64 `json:"integral"`
	// Proportional and Differential are the terms of the last iteration.
	Proportional float64 `json:"proportional"`
	Differential float64 `json:"differential"`

	// MinOutputPercentage is the output below which the device is kept off.
	MinOutputPercentage float64 `json:"min_output_percentage"`
	// Period is the loop period. Zero means unset.
	Period time.Duration `json:"period"`

	Enabled       bool    `json:"enabled"`
	Reset         bool    `json:"reset"`
	Clamped       bool    `json:"clamped"`
	OutputOn      bool    `json:"output_on"`
	OutputPercent float64 `json:"output_percent"`
}

// Configured reports whether both setpoint and period are set.
func (s Snapshot) Configured() bool {
	return s.HasSetpoint && s.Period > 0
}

// Defaults returns the parameters a controller starts from: no setpoint,
// disabled, reset pending, unity gain.
func Defaults() Snapshot {
	return Snapshot{
		Gain:  1,
		Reset: true,
	}
}
