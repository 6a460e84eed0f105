package metrics

import (
	"context"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/danweboptic/casestudies-relay/relay"
)

// Compile-time check that PrometheusReporter implements relay.Reporter.
var _ relay.Reporter = (*PrometheusReporter)(nil)

// PrometheusReporter exports relay observations as Prometheus metrics.
type PrometheusReporter struct {
	Logger zerolog.Logger
}

// Publish records metrics for a single relay observation.
// Implements the relay.Reporter interface.
func (pr *PrometheusReporter) Publish(obs *relay.RelayObservation) {
	if obs == nil {
		return
	}

	RelayRequests.WithLabelValues(
		obs.Method,
		string(obs.Outcome),
		StatusClass(obs.OutboundStatus),
	).Inc()

	OutboundDuration.WithLabelValues(obs.Method).Observe(obs.Latency.Seconds())

	switch obs.FallbackKind {
	case relay.FallbackEmpty:
		RecordParseFallback(FallbackKindEmpty)
	case relay.FallbackNonJSON:
		RecordParseFallback(FallbackKindNonJSON)
	}
}

// ServeMetrics starts the Prometheus metrics server at the supplied address.
// The listener is created synchronously so a bad address fails startup;
// serving happens in a background goroutine.
func (pr *PrometheusReporter) ServeMetrics(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		if err := http.Serve(listener, mux); err != nil && err != http.ErrServerClosed {
			pr.Logger.Error().Err(err).Msg("Prometheus metrics server stopped")
		}
	}()

	pr.Logger.Info().Str("addr", addr).Msg("Prometheus metrics server listening")
	return nil
}

// ServePprof starts the pprof server at the supplied address and shuts it
// down when the context is canceled.
func ServePprof(ctx context.Context, logger zerolog.Logger, addr string) {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("pprof server stopped")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("pprof server shutdown failed")
		}
	}()

	logger.Info().Str("addr", addr).Msg("pprof server listening")
}
