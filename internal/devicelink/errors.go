package devicelink

import "errors"

// Sentinel errors for device link operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrLineTooLong indicates the device streamed more than the configured
	// maximum line length without a newline. The connection is dropped to
	// bound memory growth.
	ErrLineTooLong = errors.New("devicelink: line exceeds maximum length")

	// ErrListenFailed indicates the TCP listener could not bind.
	ErrListenFailed = errors.New("devicelink: listen failed")

	// ErrAlreadyStarted indicates Start was called twice on a listener.
	ErrAlreadyStarted = errors.New("devicelink: listener already started")
)
