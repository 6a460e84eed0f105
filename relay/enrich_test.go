package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/danweboptic/casestudies-relay/session"
)

var testSession = session.Session{
	Shop:        "example.myshopify.com",
	AccessToken: "shpat_test_token",
}

func TestEnrichPayloadObject(t *testing.T) {
	enriched, err := EnrichPayload(json.RawMessage(`{"title":"New Case Study","tags":["a","b"]}`), testSession)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(enriched, &payload))

	require.Equal(t, "New Case Study", payload["title"])
	require.Equal(t, []any{"a", "b"}, payload["tags"])
	require.Equal(t, "example.myshopify.com", payload["shopDomain"])
	require.Equal(t, "shpat_test_token", payload["accessToken"])
}

func TestEnrichPayloadAbsent(t *testing.T) {
	enriched, err := EnrichPayload(nil, testSession)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(enriched, &payload))
	require.Equal(t, map[string]any{
		"shopDomain":  "example.myshopify.com",
		"accessToken": "shpat_test_token",
	}, payload)
}

func TestEnrichPayloadNonObjectForwardedVerbatim(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "array", data: `[1,2,3]`},
		{name: "scalar", data: `"just a string"`},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			enriched, err := EnrichPayload(json.RawMessage(test.data), testSession)
			require.NoError(t, err)
			require.JSONEq(t, test.data, string(enriched))
		})
	}
}

func TestEnrichPayloadInvalidJSON(t *testing.T) {
	_, err := EnrichPayload(json.RawMessage(`{not json`), testSession)
	require.Error(t, err)
}

func TestEnrichPayloadIdentityOverridesCollidingFields(t *testing.T) {
	enriched, err := EnrichPayload(json.RawMessage(`{"shopDomain":"spoofed.example"}`), testSession)
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(enriched, &payload))
	require.Equal(t, "example.myshopify.com", payload["shopDomain"])
}
