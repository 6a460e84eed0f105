// Package router exposes the relay and its operational endpoints over HTTP.
package router

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/danweboptic/casestudies-relay/config"
	"github.com/danweboptic/casestudies-relay/health"
	"github.com/danweboptic/casestudies-relay/relay"
)

// router serves the relay API:
//   - POST /v1/relay  — the relay endpoint
//   - GET  /health    — minimal liveness probe
//   - GET  /healthz   — component readiness
//   - GET  /ready     — session store readiness
//   - GET  /config    — sanitized active configuration
type router struct {
	logger         zerolog.Logger
	relay          *relay.Relay
	healthChecker  *health.Checker
	sessionPinger  SessionPinger
	configReporter ConfigReporter
	config         config.RouterConfig

	mux *http.ServeMux
}

// NewRouter builds the API router. Start must be called to begin serving.
func NewRouter(
	logger zerolog.Logger,
	rl *relay.Relay,
	healthChecker *health.Checker,
	sessionPinger SessionPinger,
	configReporter ConfigReporter,
	routerConfig config.RouterConfig,
) *router {
	r := &router{
		logger:         logger.With().Str("component", "router").Logger(),
		relay:          rl,
		healthChecker:  healthChecker,
		sessionPinger:  sessionPinger,
		configReporter: configReporter,
		config:         routerConfig,
		mux:            http.NewServeMux(),
	}

	r.mux.HandleFunc("POST /v1/relay", r.relay.HandleRelayRequest)
	r.mux.HandleFunc("GET /health", r.handleHealth)
	if r.healthChecker != nil {
		r.mux.Handle("GET /healthz", r.healthChecker)
	}
	r.mux.HandleFunc("GET /ready", r.handleReady)
	r.mux.HandleFunc("GET /config", r.handleConfig)

	return r
}

// Start begins serving on the configured port. The server runs in a
// background goroutine; the returned *http.Server is used for graceful
// shutdown at exit.
func (r *router) Start() (*http.Server, error) {
	server := &http.Server{
		Addr:           fmt.Sprintf(":%d", r.config.Port),
		Handler:        r.mux,
		ReadTimeout:    r.config.ReadTimeout,
		WriteTimeout:   r.config.WriteTimeout,
		IdleTimeout:    r.config.IdleTimeout,
		MaxHeaderBytes: r.config.MaxRequestHeaderBytes,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error().Err(err).Msg("relay API server stopped")
		}
	}()

	r.logger.Info().Int("port", r.config.Port).Msg("relay API router listening")
	return server, nil
}

// Handler exposes the mux for tests.
func (r *router) Handler() http.Handler {
	return r.mux
}

// handleHealth is a minimal liveness probe endpoint.
// Returns 200 OK with no body for Kubernetes liveness probes.
// For detailed health info, use /healthz instead.
func (r *router) handleHealth(w http.ResponseWriter, req *http.Request) {
	w.WriteHeader(http.StatusOK)
}
