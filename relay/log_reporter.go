package relay

import "github.com/rs/zerolog"

// Compile-time check that LogReporter implements Reporter.
var _ Reporter = (*LogReporter)(nil)

// LogReporter writes one structured audit line per relay observation.
// Useful when debugging integrations with external services of unknown
// reliability.
type LogReporter struct {
	Logger zerolog.Logger
}

// Publish implements the Reporter interface.
func (lr *LogReporter) Publish(obs *RelayObservation) {
	if obs == nil {
		return
	}

	lr.Logger.Info().
		Str("request_id", obs.RequestID).
		Str("shop", obs.Shop).
		Str("method", obs.Method).
		Str("endpoint_host", obs.EndpointHost).
		Int("outbound_status", obs.OutboundStatus).
		Str("outcome", string(obs.Outcome)).
		Dur("latency", obs.Latency).
		Msg("relay audit")
}
