package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/autofarm/autofarm-core/internal/infrastructure/config"
)

// Defaults applied when the caller omits notification content.
const (
	DefaultTitle = "AutoFarm"
	DefaultBody  = "You have a new notification"

	defaultTimeout = 10 * time.Second
)

// Notification is one push message to dispatch.
type Notification struct {
	Token string
	Title string
	Body  string
	Data  map[string]string
}

// fcmMessage is the FCM HTTP v1 request body.
type fcmMessage struct {
	Message fcmPayload `json:"message"`
}

type fcmPayload struct {
	Token        string            `json:"token"`
	Notification fcmNotification   `json:"notification"`
	Data         map[string]string `json:"data,omitempty"`
	Android      fcmAndroid        `json:"android"`
	APNS         fcmAPNS           `json:"apns"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroid struct {
	Priority string `json:"priority"`
}

type fcmAPNS struct {
	Payload fcmAPNSPayload `json:"payload"`
}

type fcmAPNSPayload struct {
	APS fcmAPS `json:"aps"`
}

type fcmAPS struct {
	Sound string `json:"sound"`
	Badge int    `json:"badge"`
}

// fcmResponse is the FCM HTTP v1 success body.
type fcmResponse struct {
	Name string `json:"name"`
}

// Client dispatches notifications over plain HTTP.
//
// Thread Safety: safe for concurrent use.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// New creates a notification client from config. No connection is
// established up front; each dispatch is an independent POST.
func New(cfg config.NotifyConfig) *Client {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		endpoint: cfg.Endpoint,
		token:    cfg.Token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Dispatch sends one notification and returns the FCM message name.
//
// Missing title/body fall back to the defaults. Delivery to the handset
// is FCM's responsibility; a 2xx from the endpoint counts as dispatched.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - n: The notification; Token is required
//
// Returns:
//   - string: FCM message identifier
//   - error: ErrMissingToken, ErrNotConfigured, or ErrDispatchFailed
func (c *Client) Dispatch(ctx context.Context, n Notification) (string, error) {
	if n.Token == "" {
		return "", ErrMissingToken
	}
	if c.endpoint == "" {
		return "", ErrNotConfigured
	}

	if n.Title == "" {
		n.Title = DefaultTitle
	}
	if n.Body == "" {
		n.Body = DefaultBody
	}

	body, err := json.Marshal(fcmMessage{
		Message: fcmPayload{
			Token: n.Token,
			Notification: fcmNotification{
				Title: n.Title,
				Body:  n.Body,
			},
			Data:    n.Data,
			Android: fcmAndroid{Priority: "high"},
			APNS: fcmAPNS{
				Payload: fcmAPNSPayload{
					APS: fcmAPS{Sound: "default", Badge: 1},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		// Drain body to allow connection reuse
		_, _ = io.Copy(io.Discard, resp.Body)
		return "", fmt.Errorf("%w: HTTP %d", ErrDispatchFailed, resp.StatusCode)
	}

	var parsed fcmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("%w: decoding response: %w", ErrDispatchFailed, err)
	}

	return parsed.Name, nil
}
