// Package notify dispatches push notifications to the AutoFarm mobile
// app through the FCM HTTP v1 API.
//
// This is an independent subsystem: nothing in the device link or
// telemetry path depends on it. The API exposes it via
// POST /send-notification so external automations (low seed level,
// temperature alarms) can reach the phone.
//
// # Usage
//
//	client := notify.New(cfg.Notify)
//	id, err := client.Dispatch(ctx, notify.Notification{
//	    Token: deviceToken,
//	    Title: "Low seed level",
//	    Body:  "The feeder is below 10%",
//	})
package notify
