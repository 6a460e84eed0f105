// Package relay implements the outbound request relay.
//
// Browser clients cannot call arbitrary external services directly because of
// CORS restrictions; they instead POST a Request descriptor to the relay,
// which performs the outbound HTTP call server-side on their behalf and
// normalizes the result into an Envelope, regardless of whether the outbound
// call itself succeeded at the HTTP layer.
package relay

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// HTTP Request Headers
// Please see the following link on the deprecation of X- prefix in HTTP header
// parameter names and why it wasn't used: https://www.rfc-editor.org/rfc/rfc6648#section-3
const (
	// HTTPHeaderShopDomain is the key used to lookup the HTTP header specifying
	// the calling shop's domain. The shop domain resolves, via the session
	// store, to the access credential used to enrich outbound payloads.
	HTTPHeaderShopDomain = "Shop-Domain"

	// HTTPHeaderRequestID carries a caller-supplied request ID for log correlation.
	HTTPHeaderRequestID = "X-Request-ID"

	// HTTPHeaderCorrelationID is an alternative request ID header checked when
	// X-Request-ID is absent.
	HTTPHeaderCorrelationID = "X-Correlation-ID"
)

var (
	// ErrMissingParameters is returned when a relay request omits the endpoint
	// or the method. The outbound call is never attempted in this case.
	ErrMissingParameters = errors.New("Missing required parameters: endpoint and method are required")

	// ErrNoShopProvided is returned when the inbound request carries no shop
	// domain header, so no caller identity can be resolved.
	ErrNoShopProvided = errors.New("no shop domain provided in the request headers")
)

// supportedMethods is the set of HTTP methods the relay forwards.
var supportedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
}

// Request is the descriptor a client sends to the relay.
//
// Data is kept as raw JSON: the relay forwards arbitrary untyped payloads and
// only needs to inspect them during identity enrichment.
type Request struct {
	// Endpoint is the absolute URL of the external service. Required.
	Endpoint string `json:"endpoint"`

	// Method is the HTTP method for the outbound call. Required.
	// One of GET, POST, PUT, DELETE.
	Method string `json:"method"`

	// Data is the payload forwarded to the external service.
	// Optional; ignored for GET requests.
	Data json.RawMessage `json:"data,omitempty"`

	// Headers are merged over the default Content-Type: application/json.
	Headers map[string]string `json:"headers,omitempty"`
}

// Validate checks that the descriptor names an endpoint and a supported method.
// Validation happens before identity resolution and before any outbound call.
func (r *Request) Validate() error {
	if r.Endpoint == "" || r.Method == "" {
		return ErrMissingParameters
	}
	if _, ok := supportedMethods[r.Method]; !ok {
		return fmt.Errorf("unsupported method: %s", r.Method)
	}
	return nil
}

// OutboundHeaders returns the headers for the outbound call: the default
// Content-Type merged with (and overridden by) caller-supplied headers.
func (r *Request) OutboundHeaders() http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	for key, value := range r.Headers {
		headers.Set(key, value)
	}
	return headers
}
