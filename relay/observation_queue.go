package relay

import (
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/rs/zerolog"
)

// QueueConfig configures the async observation processing.
type QueueConfig struct {
	// Enabled enables/disables async observation processing.
	Enabled bool `yaml:"enabled,omitempty"`

	// WorkerCount is the number of worker goroutines publishing observations.
	// Default: 2
	WorkerCount int `yaml:"worker_count,omitempty"`

	// QueueSize is the max number of pending observations.
	// If the queue is full, new observations are dropped (non-blocking).
	// Default: 1000
	QueueSize int `yaml:"queue_size,omitempty"`

	// DropHook, if set, is invoked once per dropped observation.
	// Used to feed the drop counter metric without coupling this package
	// to the metrics registry.
	DropHook func() `yaml:"-"`
}

// Default configuration values.
const (
	DefaultObservationWorkerCount = 2
	DefaultObservationQueueSize   = 1000
)

// HydrateDefaults applies default values to QueueConfig.
func (c *QueueConfig) HydrateDefaults() {
	if c.WorkerCount == 0 {
		c.WorkerCount = DefaultObservationWorkerCount
	}
	if c.QueueSize == 0 {
		c.QueueSize = DefaultObservationQueueSize
	}
}

// Outcome classifies how a relay request terminated.
type Outcome string

const (
	// OutcomeSuccess: outbound call completed with a 2xx status.
	OutcomeSuccess Outcome = "success"
	// OutcomeUpstreamError: outbound call completed with a non-2xx status.
	OutcomeUpstreamError Outcome = "upstream_error"
	// OutcomeTransportError: the outbound call failed before a response was obtained.
	OutcomeTransportError Outcome = "transport_error"
	// OutcomeRejected: the relay descriptor failed validation; no outbound call.
	OutcomeRejected Outcome = "rejected"
	// OutcomeUnauthorized: no session could be resolved for the caller.
	OutcomeUnauthorized Outcome = "unauthorized"
)

// RelayObservation captures everything reporters need about one handled
// relay request. Constructed fresh per request; never stored.
type RelayObservation struct {
	RequestID      string
	Shop           string
	Method         string
	EndpointHost   string
	OutboundStatus int
	Outcome        Outcome
	FallbackKind   FallbackKind
	Latency        time.Duration
	Timestamp      time.Time
}

// Reporter consumes relay observations.
// Publish is called from worker pool goroutines and must be safe for
// concurrent use.
type Reporter interface {
	Publish(obs *RelayObservation)
}

// Queue handles async, non-blocking observation publishing.
// It uses a worker pool so reporters never block the request hot path.
type Queue struct {
	config    QueueConfig
	pool      pond.Pool
	reporters []Reporter
	logger    zerolog.Logger

	// Counters
	mu             sync.RWMutex
	totalQueued    int64
	totalDropped   int64
	totalPublished int64
}

// NewQueue creates a new observation queue with the given config.
// Reporters must be registered via AddReporter before use.
func NewQueue(config QueueConfig, logger zerolog.Logger) *Queue {
	config.HydrateDefaults()

	pool := pond.NewPool(config.WorkerCount, pond.WithQueueSize(config.QueueSize))

	return &Queue{
		config: config,
		pool:   pool,
		logger: logger.With().Str("component", "observation_queue").Logger(),
	}
}

// AddReporter registers a reporter to receive published observations.
// Not safe to call after TryQueue traffic has started.
func (q *Queue) AddReporter(reporter Reporter) {
	q.reporters = append(q.reporters, reporter)
}

// IsEnabled returns true if async observation processing is on.
func (q *Queue) IsEnabled() bool {
	return q.config.Enabled
}

// TryQueue submits the observation to the worker pool without blocking.
// Returns false when the queue is disabled or full.
func (q *Queue) TryQueue(obs *RelayObservation) bool {
	if !q.config.Enabled || obs == nil {
		return false
	}

	_, ok := q.pool.TrySubmit(func() {
		q.publish(obs)
	})

	q.mu.Lock()
	if ok {
		q.totalQueued++
	} else {
		q.totalDropped++
	}
	q.mu.Unlock()

	if !ok {
		if q.config.DropHook != nil {
			q.config.DropHook()
		}
		q.logger.Debug().
			Str("request_id", obs.RequestID).
			Msg("Observation queue full, dropping observation.")
	}
	return ok
}

// publish fans the observation out to all registered reporters.
func (q *Queue) publish(obs *RelayObservation) {
	for _, reporter := range q.reporters {
		reporter.Publish(obs)
	}

	q.mu.Lock()
	q.totalPublished++
	q.mu.Unlock()
}

// Stats returns the queued/dropped/published counters.
func (q *Queue) Stats() (queued, dropped, published int64) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.totalQueued, q.totalDropped, q.totalPublished
}

// Stop gracefully shuts down the observation queue.
// Waits for all pending observations to be published.
func (q *Queue) Stop() {
	q.pool.StopAndWait()

	q.mu.RLock()
	defer q.mu.RUnlock()

	q.logger.Info().
		Int64("total_queued", q.totalQueued).
		Int64("total_dropped", q.totalDropped).
		Int64("total_published", q.totalPublished).
		Msg("Observation queue stopped")
}
