// Package health aggregates component readiness for the /healthz endpoint.
//
// Until all components are ready, /healthz returns a 503 Service Unavailable
// status; once all components are ready, it returns 200 OK.
package health

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

// Check is implemented by components that can signal they are ready to
// service requests.
type Check interface {
	// Name identifies the component in the health response.
	Name() string

	// IsAlive returns true when the component is ready.
	IsAlive() bool
}

// CheckFn adapts a plain function to the Check interface.
type CheckFn struct {
	ComponentName string
	Fn            func() bool
}

func (c CheckFn) Name() string  { return c.ComponentName }
func (c CheckFn) IsAlive() bool { return c.Fn() }

// Response is the JSON body served by the checker.
type Response struct {
	Status     string          `json:"status"`
	Components map[string]bool `json:"components,omitempty"`
}

// Health status values.
const (
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// Checker serves an aggregate readiness verdict over its components.
type Checker struct {
	Logger     zerolog.Logger
	Components []Check
}

// ServeHTTP implements the /healthz endpoint: 200 when every component is
// ready, 503 otherwise, with a per-component breakdown either way.
func (c *Checker) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	components := make(map[string]bool, len(c.Components))
	allReady := true

	for _, check := range c.Components {
		alive := check.IsAlive()
		components[check.Name()] = alive
		if !alive {
			allReady = false
		}
	}

	response := Response{Status: StatusReady, Components: components}
	status := http.StatusOK
	if !allReady {
		response.Status = StatusNotReady
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		c.Logger.Error().Err(err).Msg("failed to encode health response")
	}
}
