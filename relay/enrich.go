package relay

import (
	"encoding/json"
	"fmt"

	"github.com/danweboptic/casestudies-relay/session"
)

// JSON field names added to outbound payloads during identity enrichment.
const (
	enrichFieldShopDomain  = "shopDomain"
	enrichFieldAccessToken = "accessToken"
)

// EnrichPayload merges the caller identity into the outbound payload for
// non-GET calls: shopDomain and accessToken are added without needing to know
// the rest of the payload's shape.
//
// The payload is schema-less JSON. Only object payloads can carry the extra
// fields; a non-object payload (array, scalar) is forwarded unmodified. An
// absent payload becomes an object holding just the identity fields.
func EnrichPayload(data json.RawMessage, sess session.Session) (json.RawMessage, error) {
	payload := make(map[string]any)

	if len(data) > 0 {
		if err := json.Unmarshal(data, &payload); err != nil {
			// Non-object payload: forward verbatim.
			if json.Valid(data) {
				return data, nil
			}
			return nil, fmt.Errorf("relay payload is not valid JSON: %w", err)
		}
	}

	payload[enrichFieldShopDomain] = sess.Shop
	payload[enrichFieldAccessToken] = sess.AccessToken

	enriched, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return enriched, nil
}
