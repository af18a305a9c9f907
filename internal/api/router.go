package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// The control surface is flat; the ESP32 firmware and the dashboard
	// both address these paths directly.
	r.Get("/status", s.handleStatus)
	r.Get("/feed", s.handleFeed)
	r.Get("/set-interval", s.handleSetInterval)
	r.Get(s.hub.Path(), s.handleWebSocket)
	r.Post("/send-notification", s.handleSendNotification)
	r.Get("/health", s.handleHealth)

	// Unknown paths get a plain text 404, matching what the firmware's
	// minimal HTTP client expects.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
	})
}
