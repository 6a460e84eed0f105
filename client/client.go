// Package client presents a uniform call surface for code that needs to reach
// external HTTP services through the relay, hiding the indirection through
// the relay endpoint.
//
// The relay envelope's success flag is surfaced two ways:
//   - Call returns the envelope as a Result and leaves logical failures to
//     the caller (value-based handling).
//   - Fetch unwraps the Result and converts a logical failure into an
//     *ExternalAPIError (error-based handling).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
)

// Header carrying the caller's shop domain, matched by the relay endpoint.
const headerShopDomain = "Shop-Domain"

// Request describes one outbound call to make through the relay.
type Request struct {
	// Endpoint is the absolute URL of the external service. Required.
	Endpoint string

	// Method is GET, POST, PUT or DELETE. Defaults to GET.
	Method string

	// Data is the payload for non-GET calls; marshaled to JSON as-is.
	Data any

	// Headers are merged over the relay's default Content-Type.
	Headers map[string]string
}

// Result is the unwrapped relay envelope.
type Result struct {
	// Success is true iff the outbound status was in the 200-299 range.
	Success bool `json:"success"`

	// Data is the parsed outbound body (or the relay's structured fallback).
	Data json.RawMessage `json:"data"`

	// Status and StatusText are the outbound HTTP status and reason phrase.
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
}

// relayDescriptor is the wire shape POSTed to the relay endpoint.
type relayDescriptor struct {
	Endpoint string            `json:"endpoint"`
	Method   string            `json:"method"`
	Data     any               `json:"data,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`
}

// relayErrorBody is the relay's own failure response shape.
type relayErrorBody struct {
	Error string `json:"error"`
}

// Client calls external services through a relay endpoint.
// Fields are set once; the zero Logger is usable.
type Client struct {
	// RelayURL is the full URL of the relay endpoint, e.g.
	// "https://relay.internal/v1/relay".
	RelayURL string

	// Shop identifies the caller; sent as the Shop-Domain header.
	Shop string

	// HTTPClient issues the call to the relay. Nil means http.DefaultClient.
	HTTPClient *http.Client

	Logger zerolog.Logger
}

// Call sends the request through the relay and returns the envelope as a
// Result. The returned error is non-nil only when the relay itself failed;
// a logical failure of the outbound call is reported via Result.Success.
func (c *Client) Call(ctx context.Context, req Request) (*Result, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	c.Logger.Debug().
		Str("endpoint", req.Endpoint).
		Str("method", method).
		Msg("Relaying request")

	descriptor := relayDescriptor{
		Endpoint: req.Endpoint,
		Method:   method,
		Headers:  req.Headers,
	}
	if method != http.MethodGet {
		descriptor.Data = req.Data
	}

	body, err := json.Marshal(descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal relay descriptor: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RelayURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.Shop != "" {
		httpReq.Header.Set(headerShopDomain, c.Shop)
	}

	resp, err := c.httpClient().Do(httpReq)
	if err != nil {
		c.Logger.Error().Err(err).Str("endpoint", req.Endpoint).Msg("Failed to reach the relay")
		return nil, &ProxyError{Message: err.Error()}
	}
	defer resp.Body.Close()

	// Non-2xx from the relay itself: transport-level failure of the relay,
	// not of the outbound call.
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.relayError(resp)
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, &ProxyError{Status: resp.StatusCode, Message: fmt.Sprintf("invalid relay envelope: %s", err)}
	}

	return &result, nil
}

// Fetch sends the request through the relay and unwraps the envelope:
// on success the outbound body is returned unchanged; a logical failure of
// the outbound call becomes an *ExternalAPIError carrying the probed detail.
func (c *Client) Fetch(ctx context.Context, req Request) (json.RawMessage, error) {
	result, err := c.Call(ctx, req)
	if err != nil {
		return nil, err
	}

	if !result.Success {
		apiErr := &ExternalAPIError{
			Status:     result.Status,
			StatusText: result.StatusText,
			Data:       result.Data,
			Detail:     extractErrorDetail(result.Data),
		}
		c.Logger.Error().
			Str("endpoint", req.Endpoint).
			Int("status", result.Status).
			Msg(apiErr.Error())
		return nil, apiErr
	}

	return result.Data, nil
}

// Get fetches the endpoint through the relay with method GET.
func (c *Client) Get(ctx context.Context, endpoint string, headers map[string]string) (json.RawMessage, error) {
	return c.Fetch(ctx, Request{Endpoint: endpoint, Method: http.MethodGet, Headers: headers})
}

// Post fetches the endpoint through the relay with method POST.
func (c *Client) Post(ctx context.Context, endpoint string, data any, headers map[string]string) (json.RawMessage, error) {
	return c.Fetch(ctx, Request{Endpoint: endpoint, Method: http.MethodPost, Data: data, Headers: headers})
}

// Put fetches the endpoint through the relay with method PUT.
func (c *Client) Put(ctx context.Context, endpoint string, data any, headers map[string]string) (json.RawMessage, error) {
	return c.Fetch(ctx, Request{Endpoint: endpoint, Method: http.MethodPut, Data: data, Headers: headers})
}

// Delete fetches the endpoint through the relay with method DELETE.
func (c *Client) Delete(ctx context.Context, endpoint string, data any, headers map[string]string) (json.RawMessage, error) {
	return c.Fetch(ctx, Request{Endpoint: endpoint, Method: http.MethodDelete, Data: data, Headers: headers})
}

// relayError extracts a diagnostic from a non-2xx relay response: the error
// field of the body when present, else a generic status message.
func (c *Client) relayError(resp *http.Response) *ProxyError {
	var body relayErrorBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
		return &ProxyError{Status: resp.StatusCode, Message: body.Error}
	}
	return &ProxyError{Status: resp.StatusCode, Message: fmt.Sprintf("Proxy error: %d", resp.StatusCode)}
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
