package params

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidPatch indicates a Patch field is out of range.
var ErrInvalidPatch = errors.New("params: invalid patch")

// MinPeriod is the shortest loop period a patch may set. Each period must
// leave room for on/off commands to resolve inside one duty-cycle slice.
const MinPeriod = time.Second

// maxPeriodSeconds is the largest period whose nanosecond count fits a
// time.Duration.
const maxPeriodSeconds = float64(math.MaxInt64 / int64(time.Second))

// Patch is a partial update of the tunable parameters. Nil fields are
// left unchanged. It is the body of the PATCH /params endpoint and of
// the "params" member of MQTT command messages.
type Patch struct {
	Setpoint            *float64 `json:"setpoint,omitempty"`
	ClearSetpoint       bool     `json:"clear_setpoint,omitempty"`
	Gain                *float64 `json:"gain,omitempty"`
	Kp                  *float64 `json:"kp,omitempty"`
	Ki                  *float64 `json:"ki,omitempty"`
	Kd                  *float64 `json:"kd,omitempty"`
	MinOutputPercentage *float64 `json:"min_output_percentage,omitempty"`
	// PeriodSeconds sets the loop period; zero unsets it.
	PeriodSeconds *float64 `json:"period_s,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.Setpoint == nil && !p.ClearSetpoint && p.Gain == nil &&
		p.Kp == nil && p.Ki == nil && p.Kd == nil &&
		p.MinOutputPercentage == nil && p.PeriodSeconds == nil
}

// Validate checks every set field. All problems are reported together.
func (p Patch) Validate() error {
	var errs []error

	finite := func(name string, v *float64) {
		if v != nil && (math.IsNaN(*v) || math.IsInf(*v, 0)) {
			errs = append(errs, fmt.Errorf("%w: %s must be a finite number", ErrInvalidPatch, name))
		}
	}
	finite("setpoint", p.Setpoint)
	finite("gain", p.Gain)
	finite("kp", p.Kp)
	finite("ki", p.Ki)
	finite("kd", p.Kd)
	finite("min_output_percentage", p.MinOutputPercentage)
	finite("period_s", p.PeriodSeconds)

	if p.Setpoint != nil && p.ClearSetpoint {
		errs = append(errs, fmt.Errorf("%w: setpoint and clear_setpoint are mutually exclusive", ErrInvalidPatch))
	}
	if v := p.MinOutputPercentage; v != nil && (*v < 0 || *v > 100) {
		errs = append(errs, fmt.Errorf("%w: min_output_percentage must be within 0-100", ErrInvalidPatch))
	}
	if v := p.PeriodSeconds; v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0) {
		switch {
		case *v < 0:
			errs = append(errs, fmt.Errorf("%w: period_s must not be negative", ErrInvalidPatch))
		case *v > maxPeriodSeconds:
			errs = append(errs, fmt.Errorf("%w: period_s must not exceed %.0f", ErrInvalidPatch, maxPeriodSeconds))
		case *v > 0 && *v < MinPeriod.Seconds():
			errs = append(errs, fmt.Errorf("%w: period_s must be 0 or at least %v", ErrInvalidPatch, MinPeriod))
		}
	}

	return errors.Join(errs...)
}

// Apply validates the patch and applies it to store as one publication.
//
// Returns:
//   - Snapshot: The published snapshot, or the current one if p is empty
//   - error: ErrInvalidPatch (wrapped) when validation fails
func (p Patch) Apply(store *Store) (Snapshot, error) {
	if err := p.Validate(); err != nil {
		return Snapshot{}, err
	}
	if p.Empty() {
		return store.Snapshot(), nil
	}
	return store.Update(p.applyTo), nil
}

func (p Patch) applyTo(s *Snapshot) {
	switch {
	case p.Setpoint != nil:
		s.Setpoint = *p.Setpoint
		s.HasSetpoint = true
	case p.ClearSetpoint:
		s.Setpoint = 0
		s.HasSetpoint = false
	}
	if p.Gain != nil {
		s.Gain = *p.Gain
	}
	if p.Kp != nil {
		s.Kp = *p.Kp
	}
	if p.Ki != nil {
		s.Ki = *p.Ki
	}
	if p.Kd != nil {
		s.Kd = *p.Kd
	}
	if p.MinOutputPercentage != nil {
		s.MinOutputPercentage = *p.MinOutputPercentage
	}
	if p.PeriodSeconds != nil {
		s.Period = time.Duration(*p.PeriodSeconds * float64(time.Second))
	}
}
