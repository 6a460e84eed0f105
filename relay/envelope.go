package relay

import (
	"encoding/json"
	"net/http"
	"strings"
)

// DefaultMaxRawResponseBytes caps the raw text carried in the non-JSON
// fallback so a misbehaving upstream cannot bloat the envelope.
const DefaultMaxRawResponseBytes = 1000

// Envelope is the normalized response wrapper returned by the relay.
//
// It carries the outbound call's outcome, status and body together so the
// caller can branch on the outbound result rather than the relay's own
// transport: the relay answers 200 for any completed outbound call,
// success or logical failure.
type Envelope struct {
	// Success is true iff the outbound status code is in the 200-299 range.
	// Independent of whether the relay itself could complete the call.
	Success bool `json:"success"`

	// Data is the parsed outbound response body, or a structured fallback
	// when the body is empty or does not parse as JSON.
	Data json.RawMessage `json:"data"`

	// Status and StatusText are the outbound HTTP status and reason phrase.
	Status     int    `json:"status"`
	StatusText string `json:"statusText"`
}

// ErrorBody is the relay's own failure response, used for the 400 and 500
// cases where no outbound outcome exists to wrap.
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// fallbackBody is the structured stand-in for outbound bodies that carry no
// parseable JSON.
type fallbackBody struct {
	Message     string `json:"message"`
	RawResponse string `json:"rawResponse,omitempty"`
}

// FallbackKind classifies which parse fallback, if any, produced the
// envelope's data.
type FallbackKind string

const (
	// FallbackNone: the outbound body parsed as JSON and was kept verbatim.
	FallbackNone FallbackKind = ""
	// FallbackEmpty: the outbound body was empty or whitespace-only.
	FallbackEmpty FallbackKind = "empty"
	// FallbackNonJSON: the outbound body did not parse as JSON.
	FallbackNonJSON FallbackKind = "non_json"
)

// NewEnvelope wraps an outbound outcome. The body is interpreted by
// ParseOutboundBody with the supplied raw-capture limit.
func NewEnvelope(statusCode int, rawBody []byte, maxRawBytes int) (Envelope, FallbackKind) {
	data, kind := ParseOutboundBody(rawBody, maxRawBytes)
	return Envelope{
		Success:    statusCode >= 200 && statusCode <= 299,
		Data:       data,
		Status:     statusCode,
		StatusText: http.StatusText(statusCode),
	}, kind
}

// ParseOutboundBody interprets the raw outbound response text.
//
// The body is always read as raw text first so content is never lost even
// when it does not parse:
//   - empty/whitespace-only body -> {"message": "Empty response"}
//   - JSON parse failure -> {"message": "Non-JSON response", "rawResponse": <truncated text>}
//   - parse success -> the body verbatim
func ParseOutboundBody(rawBody []byte, maxRawBytes int) (json.RawMessage, FallbackKind) {
	if maxRawBytes <= 0 {
		maxRawBytes = DefaultMaxRawResponseBytes
	}

	text := string(rawBody)
	if strings.TrimSpace(text) == "" {
		fallback, _ := json.Marshal(fallbackBody{Message: "Empty response"})
		return fallback, FallbackEmpty
	}

	if json.Valid(rawBody) {
		return json.RawMessage(rawBody), FallbackNone
	}

	if len(text) > maxRawBytes {
		text = text[:maxRawBytes]
	}
	fallback, _ := json.Marshal(fallbackBody{
		Message:     "Non-JSON response",
		RawResponse: text,
	})
	return fallback, FallbackNonJSON
}
