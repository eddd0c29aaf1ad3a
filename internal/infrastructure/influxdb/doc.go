// Package influxdb writes control-loop telemetry to InfluxDB v2.
//
// Two measurements are written, both tagged with site_id:
//
//	pid_iteration  error, proportional, integral, differential, raw_output,
//	               output_percent, clamped, output_on, setpoint, current_value
//	temperature    temp_f
//
// Writes are non-blocking and batched by the client library; failures are
// delivered to the callback set with SetOnError.
package influxdb
