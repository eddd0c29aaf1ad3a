package relay

import (
	"time"

	"github.com/nerrad567/gray-logic-thermal/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-thermal/internal/params"
	"github.com/nerrad567/gray-logic-thermal/internal/pid"
)

// TelemetryWriter stores time-series points. *influxdb.Client satisfies it.
type TelemetryWriter interface {
	WriteIteration(it influxdb.Iteration)
	WriteTemperature(tempF float64, at time.Time)
}

// Telemetry adapts a TelemetryWriter to pid.Recorder and
// device.TemperatureRecorder.
type Telemetry struct {
	w TelemetryWriter
}

// NewTelemetry wraps w.
func NewTelemetry(w TelemetryWriter) *Telemetry {
	return &Telemetry{w: w}
}

// RecordIteration implements pid.Recorder.
func (t *Telemetry) RecordIteration(it pid.Iteration, snap params.Snapshot) {
	t.w.WriteIteration(influxdb.Iteration{
		Setpoint:      snap.Setpoint,
		CurrentValue:  snap.CurrentValue,
		Error:         it.Error,
		Proportional:  it.Proportional,
		Integral:      it.Integral,
		Differential:  it.Differential,
		RawOutput:     it.RawOutput,
		OutputPercent: it.OutputPercent,
		Clamped:       it.Clamped,
		OutputOn:      snap.OutputOn,
		At:            snap.UpdatedAt,
	})
}

// RecordTemperature implements device.TemperatureRecorder.
func (t *Telemetry) RecordTemperature(tempF float64, at time.Time) {
	t.w.WriteTemperature(tempF, at)
}
