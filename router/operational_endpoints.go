package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

// SessionPinger provides readiness information for the session store backing
// the relay's identity resolution.
type SessionPinger interface {
	// Ping verifies the store is reachable.
	Ping(ctx context.Context) error
}

// ConfigReporter provides sanitized configuration information.
// Implemented by components that can report their active configuration.
// All sensitive information (passwords, tokens) MUST be redacted.
type ConfigReporter interface {
	GetSanitizedConfig() map[string]interface{}
}

// readinessResponse is the JSON response for the /ready endpoint.
type readinessResponse struct {
	Ready   bool   `json:"ready"`
	Message string `json:"message,omitempty"`
}

// readyCheckTimeout bounds the session store ping so a slow backend cannot
// hang the readiness probe.
const readyCheckTimeout = 3 * time.Second

// handleReady reports whether the session store is reachable.
// Returns 200 if ready, 503 if not ready.
func (r *router) handleReady(w http.ResponseWriter, req *http.Request) {
	if r.sessionPinger == nil {
		r.writeReadinessResponse(w, readinessResponse{
			Ready:   false,
			Message: "readiness reporting not available",
		}, http.StatusServiceUnavailable)
		return
	}

	ctx, cancel := context.WithTimeout(req.Context(), readyCheckTimeout)
	defer cancel()

	if err := r.sessionPinger.Ping(ctx); err != nil {
		r.writeReadinessResponse(w, readinessResponse{
			Ready:   false,
			Message: err.Error(),
		}, http.StatusServiceUnavailable)
		return
	}

	r.writeReadinessResponse(w, readinessResponse{Ready: true}, http.StatusOK)
}

// writeReadinessResponse writes the readiness response as JSON.
func (r *router) writeReadinessResponse(w http.ResponseWriter, response readinessResponse, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		r.logger.Error().Err(err).Msg("failed to encode readiness response")
	}
}

// handleConfig returns a sanitized view of the active configuration.
func (r *router) handleConfig(w http.ResponseWriter, req *http.Request) {
	if r.configReporter == nil {
		http.Error(w, `{"error": "config reporting not available"}`, http.StatusServiceUnavailable)
		return
	}

	sanitized := r.configReporter.GetSanitizedConfig()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(sanitized); err != nil {
		r.logger.Error().Err(err).Msg("failed to encode config response")
	}
}
