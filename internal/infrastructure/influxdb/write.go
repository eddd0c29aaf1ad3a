package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names.
const (
	MeasurementPIDIteration = "pid_iteration"
	MeasurementTemperature  = "temperature"
)

// Iteration is one control-loop step as stored in pid_iteration.
type Iteration struct {
	Setpoint      float64
	CurrentValue  float64
	Error         float64
	Proportional  float64
	Integral      float64
	Differential  float64
	RawOutput     float64
	OutputPercent float64
	Clamped       bool
	OutputOn      bool
	At            time.Time
}

// WriteIteration queues a pid_iteration point.
func (c *Client) WriteIteration(it Iteration) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(iterationPoint(c.siteID, it))
}

// WriteTemperature queues a temperature point.
func (c *Client) WriteTemperature(tempF float64, at time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(temperaturePoint(c.siteID, tempF, at))
}

func iterationPoint(siteID string, it Iteration) *write.Point {
	return write.NewPoint(
		MeasurementPIDIteration,
		map[string]string{"site_id": siteID},
		map[string]interface{}{
			"setpoint":       it.Setpoint,
			"current_value":  it.CurrentValue,
			"error":          it.Error,
			"proportional":   it.Proportional,
			"integral":       it.Integral,
			"differential":   it.Differential,
			"raw_output":     it.RawOutput,
			"output_percent": it.OutputPercent,
			"clamped":        it.Clamped,
			"output_on":      it.OutputOn,
		},
		pointTime(it.At),
	)
}

func temperaturePoint(siteID string, tempF float64, at time.Time) *write.Point {
	return write.NewPoint(
		MeasurementTemperature,
		map[string]string{"site_id": siteID},
		map[string]interface{}{"temp_f": tempF},
		pointTime(at),
	)
}

func pointTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
