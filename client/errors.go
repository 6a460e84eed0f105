package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProxyError reports a failure of the relay itself: either the relay answered
// with a non-2xx status, or it could not be reached at all. The outbound call
// may never have happened.
type ProxyError struct {
	// Status is the relay's own HTTP status, or 0 when the relay was unreachable.
	Status int

	// Message is the diagnostic carried in the relay's error body, or a
	// transport error description.
	Message string
}

func (e *ProxyError) Error() string {
	if strings.HasPrefix(e.Message, "Proxy error:") {
		return e.Message
	}
	return fmt.Sprintf("Proxy error: %s", e.Message)
}

// ExternalAPIError reports a logical failure of the outbound call: the relay
// completed the call, but the external service answered outside 200-299.
// The full envelope data is retained so callers can inspect the body.
type ExternalAPIError struct {
	// Status is the outbound HTTP status. Zero means the envelope carried none.
	Status int

	// StatusText is the outbound reason phrase.
	StatusText string

	// Data is the parsed outbound body from the envelope.
	Data json.RawMessage

	// Detail is the human-readable failure description extracted from the body.
	Detail string
}

// Error builds the verbose diagnostic surfaced in UI banners: the nested
// error/errors/message fields are inlined because the external service's
// reliability is unknown and actionable messages matter more than brevity.
func (e *ExternalAPIError) Error() string {
	status := "Unknown"
	if e.Status != 0 {
		status = strconv.Itoa(e.Status)
	}
	return fmt.Sprintf("External API error: %s - %s", status, e.Detail)
}

// extractErrorDetail probes the outbound body for a failure description,
// checking in order: error (string), errors (string, array joined with ", ",
// or object re-serialized), message.
func extractErrorDetail(data json.RawMessage) string {
	var body map[string]json.RawMessage
	if err := json.Unmarshal(data, &body); err != nil {
		return string(data)
	}

	if raw, ok := body["error"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}

	if raw, ok := body["errors"]; ok {
		if detail := formatErrorsField(raw); detail != "" {
			return detail
		}
	}

	if raw, ok := body["message"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}

	return string(data)
}

// formatErrorsField renders the `errors` field, which external services ship
// as a string, an array, or an object keyed by field name.
func formatErrorsField(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		parts := make([]string, 0, len(list))
		for _, item := range list {
			parts = append(parts, fmt.Sprintf("%v", item))
		}
		return strings.Join(parts, ", ")
	}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		serialized, marshalErr := json.Marshal(obj)
		if marshalErr == nil {
			return string(serialized)
		}
	}

	return ""
}
