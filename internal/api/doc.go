// Package api provides the HTTP control surface for AutoFarm Core.
//
// It exposes the device status endpoint, the feed and interval commands,
// the dashboard WebSocket upgrade, and push notification dispatch. Routes
// are flat (no version prefix) because the ESP32 firmware and the dashboard
// address them directly:
//
//	GET  /status             device connectivity and last known readings
//	GET  /feed?value=N       dispatch a feed command (N portions)
//	GET  /set-interval?value=MS  change the sensor reporting interval
//	GET  /ws                 dashboard WebSocket upgrade
//	POST /send-notification  forward a push notification to FCM
//	GET  /health             liveness probe
//
// The server follows the same lifecycle pattern as the other infrastructure
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
