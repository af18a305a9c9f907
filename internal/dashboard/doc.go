// Package dashboard pushes live sensor data to the browser dashboard
// over a WebSocket connection.
//
// The hub holds at most ONE subscriber: the dashboard is a single page
// served to whoever is looking at the feeder, and the newest connection
// always wins. A replaced or disconnected subscriber never affects
// device session state; the hub is a weak reference from the device
// link's point of view.
//
// Outbound messages are sensor_data events:
//
//	{"type":"sensor_data","temperature":23.5,"humidity":60.0,"timestamp":"..."}
//
// Inbound client messages are read (to keep the connection alive and
// detect closes) but carry no semantics.
package dashboard
