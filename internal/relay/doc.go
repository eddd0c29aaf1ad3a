// Package relay connects the control parameters to the outside world.
//
// It publishes every parameter snapshot retained on MQTT, forwards loop
// lifecycle events to MQTT, feeds iteration and temperature telemetry to
// InfluxDB and accepts control commands from the MQTT command topic.
//
// Every sink is reached through a small interface so the package can be
// tested without a broker or a time-series database.
package relay
