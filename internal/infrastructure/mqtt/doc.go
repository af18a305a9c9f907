// Package mqtt provides MQTT connectivity for AutoFarm Core.
//
// The bridge uses MQTT two ways: telemetry accepted from the device
// link is mirrored out on retained state topics and one-shot event
// topics, and commands published by external automations on the
// device command topic are forwarded to the device.
//
//	ESP32 -> AutoFarm Core -> autofarm/state/..., autofarm/event/...
//	Automations -> autofarm/command/... -> AutoFarm Core -> ESP32
//
// A retained Last Will on autofarm/system/status lets consumers
// distinguish a bridge crash from a graceful shutdown. Subscriptions
// survive reconnects; reconnection uses exponential backoff between
// the configured delays.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.DeviceState("esp32-001")
//	client.PublishRetained(topic, []byte(`{"temperature":23.5}`))
package mqtt
