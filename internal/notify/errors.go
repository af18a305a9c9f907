package notify

import "errors"

// Sentinel errors for notification dispatch.
var (
	// ErrMissingToken indicates no FCM device token was provided.
	ErrMissingToken = errors.New("notify: fcm token required")

	// ErrNotConfigured indicates no dispatch endpoint is configured.
	ErrNotConfigured = errors.New("notify: endpoint not configured")

	// ErrDispatchFailed indicates the FCM endpoint rejected the message.
	ErrDispatchFailed = errors.New("notify: dispatch failed")
)
