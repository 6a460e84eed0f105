package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/danweboptic/casestudies-relay/metrics"
)

// setupMetricsServer initializes and starts the Prometheus metrics server at the supplied address.
func setupMetricsServer(logger zerolog.Logger, addr string) (*metrics.PrometheusReporter, error) {
	pmr := &metrics.PrometheusReporter{
		Logger: logger,
	}

	if err := pmr.ServeMetrics(addr); err != nil {
		return nil, err
	}

	return pmr, nil
}

// setupPprofServer starts the metric package's pprof server, at the supplied address.
func setupPprofServer(ctx context.Context, logger zerolog.Logger, addr string) {
	metrics.ServePprof(ctx, logger, addr)
}
