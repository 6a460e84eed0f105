package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/danweboptic/casestudies-relay/session"
)

// newTestRelay builds a Relay backed by an in-memory session store holding a
// single shop.
func newTestRelay(t *testing.T) *Relay {
	t.Helper()

	store := session.NewMemoryStore(0)
	t.Cleanup(func() { store.Close() })

	err := store.Put(context.Background(), session.Session{
		Shop:        "example.myshopify.com",
		AccessToken: "shpat_test_token",
	})
	require.NoError(t, err)

	return &Relay{
		Logger:   zerolog.Nop(),
		Sessions: store,
	}
}

// doRelay POSTs the supplied descriptor to the relay and returns the recorder.
func doRelay(t *testing.T, rl *Relay, descriptor string, shop string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/v1/relay", bytes.NewBufferString(descriptor))
	if shop != "" {
		req.Header.Set(HTTPHeaderShopDomain, shop)
	}
	w := httptest.NewRecorder()
	rl.HandleRelayRequest(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var envelope Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestRelayMissingParameters(t *testing.T) {
	rl := newTestRelay(t)

	// An outbound server that must never be reached.
	var outboundCalls atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outboundCalls.Add(1)
	}))
	defer upstream.Close()

	tests := []struct {
		name       string
		descriptor string
	}{
		{name: "missing endpoint", descriptor: `{"method":"GET"}`},
		{name: "missing method", descriptor: `{"endpoint":"` + upstream.URL + `"}`},
		{name: "missing both", descriptor: `{}`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			w := doRelay(t, rl, test.descriptor, "example.myshopify.com")
			require.Equal(t, http.StatusBadRequest, w.Code)

			var body ErrorBody
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.False(t, body.Success)
			require.Equal(t, "Missing required parameters: endpoint and method are required", body.Error)
		})
	}

	require.Zero(t, outboundCalls.Load(), "no outbound call may be attempted for malformed descriptors")
}

func TestRelayUnsupportedMethod(t *testing.T) {
	rl := newTestRelay(t)

	w := doRelay(t, rl, `{"endpoint":"http://example.com","method":"PATCH"}`, "example.myshopify.com")
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Contains(t, body.Error, "unsupported method")
}

func TestRelayMissingShopHeader(t *testing.T) {
	rl := newTestRelay(t)

	w := doRelay(t, rl, `{"endpoint":"http://example.com","method":"GET"}`, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRelayUnknownShop(t *testing.T) {
	rl := newTestRelay(t)

	w := doRelay(t, rl, `{"endpoint":"http://example.com","method":"GET"}`, "unknown.myshopify.com")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
}

func TestRelayPostCreated(t *testing.T) {
	rl := newTestRelay(t)

	var outboundCalls atomic.Int64
	var outboundBody []byte
	var outboundMethod, outboundContentType string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		outboundCalls.Add(1)
		outboundMethod = r.Method
		outboundContentType = r.Header.Get("Content-Type")
		outboundBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 7}`))
	}))
	defer upstream.Close()

	descriptor := `{"endpoint":"` + upstream.URL + `","method":"POST","data":{"title":"New Case Study"}}`
	w := doRelay(t, rl, descriptor, "example.myshopify.com")

	// The relay wraps any completed outbound outcome as a normal response.
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	require.True(t, envelope.Success)
	require.Equal(t, http.StatusCreated, envelope.Status)
	require.Equal(t, "Created", envelope.StatusText)
	require.JSONEq(t, `{"id": 7}`, string(envelope.Data))

	// Exactly one outbound call with the caller's method and headers.
	require.Equal(t, int64(1), outboundCalls.Load())
	require.Equal(t, http.MethodPost, outboundMethod)
	require.Equal(t, "application/json", outboundContentType)

	// The outbound payload carries the original fields plus the identity.
	var payload map[string]any
	require.NoError(t, json.Unmarshal(outboundBody, &payload))
	require.Equal(t, "New Case Study", payload["title"])
	require.Equal(t, "example.myshopify.com", payload["shopDomain"])
	require.Equal(t, "shpat_test_token", payload["accessToken"])
}

func TestRelayGetNoContent(t *testing.T) {
	rl := newTestRelay(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Empty(t, r.Header.Get("Content-Length"), "GET relays must carry no body")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	w := doRelay(t, rl, `{"endpoint":"`+upstream.URL+`","method":"GET"}`, "example.myshopify.com")
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	require.True(t, envelope.Success)
	require.Equal(t, http.StatusNoContent, envelope.Status)

	var fallback map[string]string
	require.NoError(t, json.Unmarshal(envelope.Data, &fallback))
	require.Equal(t, map[string]string{"message": "Empty response"}, fallback)
}

func TestRelayUpstreamLogicalFailure(t *testing.T) {
	rl := newTestRelay(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "not found"}`))
	}))
	defer upstream.Close()

	w := doRelay(t, rl, `{"endpoint":"`+upstream.URL+`","method":"GET"}`, "example.myshopify.com")

	// Logical failure is not a relay error: status/body are carried through
	// inside a normal 200 response for the caller to interpret.
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	require.False(t, envelope.Success)
	require.Equal(t, http.StatusNotFound, envelope.Status)
	require.JSONEq(t, `{"error": "not found"}`, string(envelope.Data))
}

func TestRelayTransportFailure(t *testing.T) {
	rl := newTestRelay(t)

	// A server that is already closed: connection refused.
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := upstream.URL
	upstream.Close()

	w := doRelay(t, rl, `{"endpoint":"`+deadURL+`","method":"GET"}`, "example.myshopify.com")
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.False(t, body.Success)
	require.Contains(t, body.Error, "Proxy error:")
}

func TestRelayNonJSONUpstreamBody(t *testing.T) {
	rl := newTestRelay(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream exploded</html>"))
	}))
	defer upstream.Close()

	w := doRelay(t, rl, `{"endpoint":"`+upstream.URL+`","method":"GET"}`, "example.myshopify.com")
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	require.False(t, envelope.Success)
	require.Equal(t, http.StatusBadGateway, envelope.Status)

	var fallback map[string]string
	require.NoError(t, json.Unmarshal(envelope.Data, &fallback))
	require.Equal(t, "Non-JSON response", fallback["message"])
	require.Equal(t, "<html>upstream exploded</html>", fallback["rawResponse"])
}

func TestRelayHeaderMerge(t *testing.T) {
	rl := newTestRelay(t)

	var gotAccept, gotContentType string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	descriptor := `{"endpoint":"` + upstream.URL + `","method":"POST","headers":{"Accept":"application/xml","Content-Type":"application/vnd.api+json"}}`
	w := doRelay(t, rl, descriptor, "example.myshopify.com")
	require.Equal(t, http.StatusOK, w.Code)

	require.Equal(t, "application/xml", gotAccept)
	require.Equal(t, "application/vnd.api+json", gotContentType, "caller headers merge over the default Content-Type")
}

func TestRelayInvalidBody(t *testing.T) {
	rl := newTestRelay(t)

	w := doRelay(t, rl, `this is not json`, "example.myshopify.com")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRelayPublishesObservations(t *testing.T) {
	rl := newTestRelay(t)

	queue := NewQueue(QueueConfig{Enabled: true, WorkerCount: 1, QueueSize: 10}, zerolog.Nop())
	recorder := &recordingReporter{}
	queue.AddReporter(recorder)
	rl.ObservationQueue = queue

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	w := doRelay(t, rl, `{"endpoint":"`+upstream.URL+`","method":"GET"}`, "example.myshopify.com")
	require.Equal(t, http.StatusOK, w.Code)

	// Drain the queue so the reporter has seen the observation.
	queue.Stop()

	obs := recorder.observations()
	require.Len(t, obs, 1)
	require.Equal(t, OutcomeSuccess, obs[0].Outcome)
	require.Equal(t, "example.myshopify.com", obs[0].Shop)
	require.Equal(t, http.MethodGet, obs[0].Method)
	require.Equal(t, http.StatusOK, obs[0].OutboundStatus)
	require.NotEmpty(t, obs[0].RequestID)
}
