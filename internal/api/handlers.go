package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/autofarm/autofarm-core/internal/notify"
)

// minIntervalMs is the smallest reporting interval the firmware accepts.
// Anything faster floods the serial link and drains the sensor.
const minIntervalMs = 1000

// statusResponse is the payload for GET /status.
//
// Temperature and humidity are pointers so the JSON carries null until the
// first reading arrives, and keeps the last known values after a disconnect.
type statusResponse struct {
	ESP32Connected bool     `json:"esp32Connected"`
	ServerTime     string   `json:"serverTime"`
	Temperature    *float64 `json:"temperature"`
	Humidity       *float64 `json:"humidity"`
}

// commandResponse is the payload for successful command endpoints.
type commandResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// handleStatus reports device connectivity and the last known readings.
func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	snap := s.device.Snapshot()
	writeJSON(w, http.StatusOK, statusResponse{
		ESP32Connected: snap.Connected,
		ServerTime:     time.Now().UTC().Format(time.RFC3339),
		Temperature:    snap.Temperature,
		Humidity:       snap.Humidity,
	})
}

// handleFeed dispatches a feed command to the device.
//
// The value query parameter is the portion count and must be a positive
// integer. Returns 503 when no device is connected.
func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	value, err := strconv.Atoi(r.URL.Query().Get("value"))
	if err != nil || value <= 0 {
		writeBadRequest(w, "value must be a positive integer")
		return
	}

	if !s.device.SendCommand(fmt.Sprintf("FEED=%d", value)) {
		writeUnavailable(w, "device not connected")
		return
	}

	s.logger.Info("feed command dispatched", "portions", value)
	writeJSON(w, http.StatusOK, commandResponse{
		Success: true,
		Message: fmt.Sprintf("Feed command sent (%d portions)", value),
	})
}

// handleSetInterval changes the device's sensor reporting interval.
//
// The value query parameter is the interval in milliseconds and must be
// at least 1000. Returns 503 when no device is connected.
func (s *Server) handleSetInterval(w http.ResponseWriter, r *http.Request) {
	value, err := strconv.Atoi(r.URL.Query().Get("value"))
	if err != nil || value < minIntervalMs {
		writeBadRequest(w, fmt.Sprintf("value must be an integer >= %d", minIntervalMs))
		return
	}

	if !s.device.SendCommand(fmt.Sprintf("INTERVAL=%d", value)) {
		writeUnavailable(w, "device not connected")
		return
	}

	s.logger.Info("interval command dispatched", "interval_ms", value)
	writeJSON(w, http.StatusOK, commandResponse{
		Success: true,
		Message: fmt.Sprintf("Interval set to %d ms", value),
	})
}

// handleWebSocket upgrades the connection and registers it as the
// dashboard subscriber. Only one subscriber is held at a time; a new
// connection replaces the previous one.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.hub.HandleUpgrade(w, r)
}

// sendNotificationRequest is the payload for POST /send-notification.
type sendNotificationRequest struct {
	FCMToken string            `json:"fcm_token"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data"`
}

// handleSendNotification forwards a push notification to FCM.
func (s *Server) handleSendNotification(w http.ResponseWriter, r *http.Request) {
	var req sendNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if req.FCMToken == "" {
		writeBadRequest(w, "fcm_token is required")
		return
	}

	if s.notifier == nil {
		writeBadGateway(w, "notification dispatch is not configured")
		return
	}

	id, err := s.notifier.Dispatch(r.Context(), notify.Notification{
		Token: req.FCMToken,
		Title: req.Title,
		Body:  req.Body,
		Data:  req.Data,
	})
	if err != nil {
		if errors.Is(err, notify.ErrMissingToken) {
			writeBadRequest(w, "fcm_token is required")
			return
		}
		s.logger.Error("notification dispatch failed", "error", err)
		writeBadGateway(w, "notification dispatch failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Notification sent successfully",
		"id":      id,
	})
}
