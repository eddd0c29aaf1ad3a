package pid

import (
	"time"

	"github.com/nerrad567/gray-logic-thermal/internal/params"
)

// Iteration is the outcome of one PID step.
type Iteration struct {
	Error         float64
	Proportional  float64
	Integral      float64
	Differential  float64
	RawOutput     float64
	OutputPercent float64
	// Clamped is this iteration's anti-windup flag.
	Clamped bool
	// PreviousValue is the value the next iteration differentiates against.
	PreviousValue float64
}

// Compute performs one PID step on s. It has no side effects.
func Compute(s params.Snapshot) Iteration {
	// Odd choice of sign, kept: coefficients are tuned against it.
	e := s.Setpoint - s.CurrentValue

	proportional := e * s.Kp

	integral := s.Integral
	if !s.Clamped {
		integral += e * s.Ki
	}

	differential := (s.CurrentValue - s.PreviousValue) * s.Kd

	raw := s.Gain * (proportional + integral - differential)

	return Iteration{
		Error:         e,
		Proportional:  proportional,
		Integral:      integral,
		Differential:  differential,
		RawOutput:     raw,
		OutputPercent: params.ClampPercent(raw),
		Clamped:       (raw > 100 || raw < 0) && integral*e > 0,
		PreviousValue: s.CurrentValue,
	}
}

// OnDuration returns how long the output stays on within period for the
// given output percentage.
func OnDuration(period time.Duration, outputPercent float64) time.Duration {
	return time.Duration(float64(period) * outputPercent / 100)
}
