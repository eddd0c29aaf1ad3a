// Package mqtt connects Gray Logic Thermal to an MQTT broker.
//
// The service publishes every parameter snapshot retained on
// graylogic/thermal/{site_id}/state, reports its own availability on
// graylogic/system/status (with a Last Will for crashes) and listens for
// control commands on graylogic/thermal/{site_id}/command.
//
// # Thread Safety
//
// All Client methods are safe for concurrent use. Subscriptions are
// restored after a reconnect.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topics := mqtt.Topics{}
//	err = client.PublishRetained(topics.ThermalState(cfg.Site.ID), payload)
package mqtt
