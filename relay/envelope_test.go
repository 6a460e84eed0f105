package relay

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseOutboundBodyEmptyResponse(t *testing.T) {
	tests := []struct {
		name string
		body []byte
	}{
		{name: "nil body", body: nil},
		{name: "empty body", body: []byte("")},
		{name: "whitespace only", body: []byte("  \n\t ")},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, kind := ParseOutboundBody(test.body, 0)
			require.Equal(t, FallbackEmpty, kind)

			var fallback map[string]string
			require.NoError(t, json.Unmarshal(data, &fallback))
			require.Equal(t, map[string]string{"message": "Empty response"}, fallback)
		})
	}
}

func TestParseOutboundBodyNonJSON(t *testing.T) {
	data, kind := ParseOutboundBody([]byte("<html>502 Bad Gateway</html>"), 0)
	require.Equal(t, FallbackNonJSON, kind)

	var fallback map[string]string
	require.NoError(t, json.Unmarshal(data, &fallback))
	require.Equal(t, "Non-JSON response", fallback["message"])
	require.Equal(t, "<html>502 Bad Gateway</html>", fallback["rawResponse"])
}

func TestParseOutboundBodyTruncation(t *testing.T) {
	raw := "x" + strings.Repeat("y", 2000)
	data, kind := ParseOutboundBody([]byte(raw), 0)
	require.Equal(t, FallbackNonJSON, kind)

	var fallback map[string]string
	require.NoError(t, json.Unmarshal(data, &fallback))
	require.Equal(t, "Non-JSON response", fallback["message"])
	require.Len(t, fallback["rawResponse"], DefaultMaxRawResponseBytes)
	require.Equal(t, raw[:DefaultMaxRawResponseBytes], fallback["rawResponse"])
}

func TestParseOutboundBodyValidJSONVerbatim(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "object", body: `{"id":7,"nested":{"a":[1,2,3]}}`},
		{name: "array", body: `[1,"two",null]`},
		{name: "scalar", body: `42`},
		{name: "null", body: `null`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			data, kind := ParseOutboundBody([]byte(test.body), 0)
			require.Equal(t, FallbackNone, kind)

			var want, got any
			require.NoError(t, json.Unmarshal([]byte(test.body), &want))
			require.NoError(t, json.Unmarshal(data, &got))
			require.Equal(t, want, got, "valid JSON body must round-trip unchanged")
		})
	}
}

func TestNewEnvelopeSuccessBoundaries(t *testing.T) {
	tests := []struct {
		status  int
		success bool
	}{
		{status: 200, success: true},
		{status: 201, success: true},
		{status: 204, success: true},
		{status: 299, success: true},
		{status: 199, success: false},
		{status: 300, success: false},
		{status: 404, success: false},
		{status: 500, success: false},
	}

	for _, test := range tests {
		envelope, _ := NewEnvelope(test.status, []byte(`{}`), 0)
		require.Equal(t, test.success, envelope.Success, "status %d", test.status)
		require.Equal(t, test.status, envelope.Status)
	}
}

func TestNewEnvelopeStatusText(t *testing.T) {
	envelope, kind := NewEnvelope(201, []byte(`{"id":7}`), 0)
	require.Equal(t, FallbackNone, kind)
	require.Equal(t, "Created", envelope.StatusText)

	envelope, _ = NewEnvelope(404, []byte(`{}`), 0)
	require.Equal(t, "Not Found", envelope.StatusText)
}
