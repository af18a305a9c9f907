// Package telemetry connects the device link to its consumers.
//
// The Sink fans each accepted frame out to SQLite persistence, the
// dashboard push channel, and the optional MQTT and InfluxDB mirrors:
// readings go everywhere, seed levels to storage and metrics, alerts
// and lifecycle transitions to storage and the MQTT event topic. The
// effects are independent; a failure in one is logged and does not
// prevent, delay, or reorder the others. For a given reading the
// storage insert always happens before the dashboard broadcast, so the
// dashboard can never show data newer than what was stored.
//
// The CommandBridge runs the opposite direction: commands published on
// the MQTT command topic are validated against the firmware grammar and
// forwarded to the device session.
package telemetry
