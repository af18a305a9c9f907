package mqtt

import "fmt"

// TopicPrefix is the base for all AutoFarm topics. The namespace is
// flat: autofarm/{category}/{device_id}.
const TopicPrefix = "autofarm"

// Topics builds AutoFarm topic names so the naming stays consistent
// across the codebase.
//
//	topics := mqtt.Topics{}
//	topics.DeviceState("esp32-001") // "autofarm/state/esp32-001"
type Topics struct{}

// DeviceState returns the retained telemetry topic for a device.
//
// Example: autofarm/state/esp32-001
func (Topics) DeviceState(deviceID string) string {
	return fmt.Sprintf("%s/state/%s", TopicPrefix, deviceID)
}

// DeviceEvent returns the topic for one-shot device events: alerts and
// lifecycle transitions.
//
// Example: autofarm/event/esp32-001
func (Topics) DeviceEvent(deviceID string) string {
	return fmt.Sprintf("%s/event/%s", TopicPrefix, deviceID)
}

// DeviceCommand returns the topic the bridge listens on for inbound
// device commands.
//
// Example: autofarm/command/esp32-001
func (Topics) DeviceCommand(deviceID string) string {
	return fmt.Sprintf("%s/command/%s", TopicPrefix, deviceID)
}

// SystemStatus returns the bridge status topic, also used for the Last
// Will message.
//
// Example: autofarm/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/system/status", TopicPrefix)
}
