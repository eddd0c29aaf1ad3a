package mqtt

import "fmt"

// Topic prefixes.
const (
	// TopicPrefixThermal is the base for all thermal controller topics.
	TopicPrefixThermal = "graylogic/thermal"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "graylogic/system"
)

// Topics provides builders for the service's MQTT topics.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.ThermalState("site-001")
//	// Returns: "graylogic/thermal/site-001/state"
type Topics struct{}

// ThermalState returns the retained topic carrying the latest parameter snapshot.
func (Topics) ThermalState(siteID string) string {
	return fmt.Sprintf("%s/%s/state", TopicPrefixThermal, siteID)
}

// ThermalCommand returns the topic on which control commands are accepted.
func (Topics) ThermalCommand(siteID string) string {
	return fmt.Sprintf("%s/%s/command", TopicPrefixThermal, siteID)
}

// ThermalEvent returns the topic for lifecycle events of the control loop.
//
// Example: graylogic/thermal/site-001/event/start
func (Topics) ThermalEvent(siteID, action string) string {
	return fmt.Sprintf("%s/%s/event/%s", TopicPrefixThermal, siteID, action)
}

// SystemStatus returns the retained availability topic.
func (Topics) SystemStatus() string {
	return TopicPrefixSystem + "/status"
}
