package relay

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/danweboptic/casestudies-relay/session"
)

// Relay performs outbound HTTP calls on behalf of browser clients.
//
// Each inbound request results in at most one outbound call: no batching,
// no pooling, no retries. Fields are wired once at startup.
type Relay struct {
	Logger zerolog.Logger

	// Sessions resolves a shop domain to the credential used for payload
	// enrichment.
	Sessions session.Store

	// HTTPClient issues the outbound calls. A nil client falls back to a
	// default client with no timeout, leaving cancellation to the transport.
	HTTPClient *http.Client

	// ObservationQueue receives a RelayObservation per handled request.
	// Optional; nil disables observation publishing.
	ObservationQueue *Queue

	// MaxRawResponseBytes caps the raw text captured in the non-JSON
	// fallback. Zero means DefaultMaxRawResponseBytes.
	MaxRawResponseBytes int
}

// requestContext carries the per-request state through the relay's stages:
// received -> validated -> identity -> enriched -> outbound -> respond.
// Terminal states: respond-400, respond-401, respond-200(envelope), respond-500.
type requestContext struct {
	logger    zerolog.Logger
	requestID string

	relayRequest Request
	shop         string
	startTime    time.Time

	// outbound outcome, populated after the outbound call completes
	outboundStatus int
	outcome        Outcome
	fallbackKind   FallbackKind
}

// HandleRelayRequest serves a single relay request end to end.
func (rl *Relay) HandleRelayRequest(w http.ResponseWriter, httpReq *http.Request) {
	rc := &requestContext{
		requestID: extractRequestID(httpReq),
		startTime: time.Now(),
	}
	rc.logger = rl.Logger.With().
		Str("request_id", rc.requestID).
		Str("http_req_remote_addr", httpReq.RemoteAddr).
		Logger()

	defer rl.publishObservation(rc)

	// Decode the relay descriptor.
	if err := json.NewDecoder(httpReq.Body).Decode(&rc.relayRequest); err != nil {
		rc.outcome = OutcomeRejected
		rc.logger.Error().Err(err).Msg("Failed to decode relay request body.")
		rl.writeError(w, rc, http.StatusBadRequest, "Invalid request body: expected a JSON relay descriptor")
		return
	}

	rc.logger = rc.logger.With().
		Str("relay_endpoint", rc.relayRequest.Endpoint).
		Str("relay_method", rc.relayRequest.Method).
		Logger()

	// Validate before identity resolution: the outbound call and the
	// enrichment never occur for malformed descriptors.
	if err := rc.relayRequest.Validate(); err != nil {
		rc.outcome = OutcomeRejected
		rc.logger.Error().Err(err).Msg("Relay request rejected by validation.")
		rl.writeError(w, rc, http.StatusBadRequest, err.Error())
		return
	}

	// Resolve the caller identity.
	sess, err := rl.resolveSession(httpReq)
	if err != nil {
		rc.outcome = OutcomeUnauthorized
		rc.logger.Error().Err(err).Msg("Failed to resolve a session for the relay request.")
		rl.writeError(w, rc, http.StatusUnauthorized, err.Error())
		return
	}
	rc.shop = sess.Shop
	rc.logger = rc.logger.With().Str("shop", sess.Shop).Logger()

	// Perform the outbound call and wrap the outcome.
	envelope, err := rl.performOutboundCall(httpReq, rc, sess)
	if err != nil {
		// Transport failure: the only case that surfaces as a relay-level
		// (not outbound-level) failure to the client.
		rc.outcome = OutcomeTransportError
		rc.logger.Error().Err(err).Msg("Outbound call failed before a response was obtained.")
		rl.writeError(w, rc, http.StatusInternalServerError, fmt.Sprintf("Proxy error: %s", err.Error()))
		return
	}

	rc.outboundStatus = envelope.Status
	if envelope.Success {
		rc.outcome = OutcomeSuccess
	} else {
		rc.outcome = OutcomeUpstreamError
	}

	rc.logger.Info().
		Int("outbound_status", envelope.Status).
		Bool("success", envelope.Success).
		Dur("outbound_duration", time.Since(rc.startTime)).
		Msg("Completed relay request.")

	// The relay always answers its own transport with 200 for a completed
	// outbound call so callers can branch on the envelope instead.
	rl.writeJSON(w, rc, http.StatusOK, envelope)
}

// resolveSession extracts the shop domain header and resolves it via the
// session store.
func (rl *Relay) resolveSession(httpReq *http.Request) (session.Session, error) {
	shop := httpReq.Header.Get(HTTPHeaderShopDomain)
	if shop == "" {
		return session.Session{}, ErrNoShopProvided
	}
	return rl.Sessions.Resolve(httpReq.Context(), shop)
}

// performOutboundCall issues the single outbound HTTP request and wraps the
// response in an Envelope. A returned error means no response was obtained.
func (rl *Relay) performOutboundCall(httpReq *http.Request, rc *requestContext, sess session.Session) (Envelope, error) {
	relayReq := &rc.relayRequest

	var body io.Reader
	if relayReq.Method != http.MethodGet {
		payload, err := EnrichPayload(relayReq.Data, sess)
		if err != nil {
			return Envelope{}, fmt.Errorf("failed to enrich outbound payload: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	outboundReq, err := http.NewRequestWithContext(httpReq.Context(), relayReq.Method, relayReq.Endpoint, body)
	if err != nil {
		return Envelope{}, err
	}
	outboundReq.Header = relayReq.OutboundHeaders()

	resp, err := rl.httpClient().Do(outboundReq)
	if err != nil {
		return Envelope{}, err
	}
	defer resp.Body.Close()

	// Read the body as raw text first so content is never lost even when it
	// does not parse.
	rawBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Envelope{}, err
	}

	envelope, fallbackKind := NewEnvelope(resp.StatusCode, rawBody, rl.MaxRawResponseBytes)
	rc.fallbackKind = fallbackKind
	return envelope, nil
}

// publishObservation hands the per-request observation to the queue.
// Non-blocking: a full or absent queue drops the observation.
func (rl *Relay) publishObservation(rc *requestContext) {
	if rl.ObservationQueue == nil {
		return
	}

	rl.ObservationQueue.TryQueue(&RelayObservation{
		RequestID:      rc.requestID,
		Shop:           rc.shop,
		Method:         rc.relayRequest.Method,
		EndpointHost:   endpointHost(rc.relayRequest.Endpoint),
		OutboundStatus: rc.outboundStatus,
		Outcome:        rc.outcome,
		FallbackKind:   rc.fallbackKind,
		Latency:        time.Since(rc.startTime),
		Timestamp:      rc.startTime,
	})
}

// writeError writes the relay's own failure body at the given status.
func (rl *Relay) writeError(w http.ResponseWriter, rc *requestContext, statusCode int, message string) {
	rl.writeJSON(w, rc, statusCode, ErrorBody{Success: false, Error: message})
}

// writeJSON writes the supplied value as the HTTP response body.
func (rl *Relay) writeJSON(w http.ResponseWriter, rc *requestContext, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		rc.logger.Warn().Err(err).Msg("Error writing the relay response.")
	}
}

// httpClient returns the configured outbound client, falling back to a client
// with no timeout so a hung outbound call is bounded only by the transport.
func (rl *Relay) httpClient() *http.Client {
	if rl.HTTPClient != nil {
		return rl.HTTPClient
	}
	return http.DefaultClient
}

// extractRequestID returns the caller-supplied request ID, or a fresh UUID,
// for log correlation.
func extractRequestID(httpReq *http.Request) string {
	if id := httpReq.Header.Get(HTTPHeaderRequestID); id != "" {
		return id
	}
	if id := httpReq.Header.Get(HTTPHeaderCorrelationID); id != "" {
		return id
	}
	return uuid.New().String()
}

// endpointHost extracts the host portion of the outbound endpoint for
// observation labels; the full URL may carry query secrets.
func endpointHost(endpoint string) string {
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return parsed.Host
}
