package config

import (
	"fmt"
	"time"

	"github.com/danweboptic/casestudies-relay/relay"
)

/* --------------------------------- Relay Config Struct -------------------------------- */

// RelayConfig contains the relay endpoint's own settings.
type RelayConfig struct {
	// OutboundTimeout bounds each outbound HTTP call.
	// Zero (the default) leaves cancellation entirely to the transport:
	// a hung outbound call occupies its handler until the server write
	// timeout fires.
	OutboundTimeout time.Duration `yaml:"outbound_timeout"`

	// MaxRawResponseBytes caps the raw text captured when an outbound body
	// does not parse as JSON. Default: 1000.
	MaxRawResponseBytes int `yaml:"max_raw_response_bytes"`
}

/* --------------------------------- Relay Config Private Helpers -------------------------------- */

// hydrateRelayDefaults assigns default values to RelayConfig fields if they are not set.
func (c *RelayConfig) hydrateRelayDefaults() error {
	if c.MaxRawResponseBytes == 0 {
		c.MaxRawResponseBytes = relay.DefaultMaxRawResponseBytes
	}
	if c.MaxRawResponseBytes < 0 {
		return fmt.Errorf("max_raw_response_bytes must be positive, got %d", c.MaxRawResponseBytes)
	}
	if c.OutboundTimeout < 0 {
		return fmt.Errorf("outbound_timeout must not be negative, got %v", c.OutboundTimeout)
	}
	return nil
}
