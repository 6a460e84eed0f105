package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	configpkg "github.com/danweboptic/casestudies-relay/config"
	"github.com/danweboptic/casestudies-relay/health"
	"github.com/danweboptic/casestudies-relay/metrics"
	"github.com/danweboptic/casestudies-relay/relay"
	"github.com/danweboptic/casestudies-relay/router"
	"github.com/danweboptic/casestudies-relay/session"
)

// Version information injected at build time via ldflags
var (
	Version   string
	Commit    string
	BuildDate string
)

// defaultConfigPath will be appended to the location of
// the executable to get the full path to the config file.
const defaultConfigPath = "config/.config.yaml"

func main() {
	log.Printf(`{"level":"info","message":"relay gateway starting..."}`)

	// Get the config path
	configPath, err := getConfigPath(defaultConfigPath)
	if err != nil {
		log.Fatalf(`{"level":"fatal","error":"%v","message":"failed to get config path"}`, err)
	}

	// Load the config
	config, err := configpkg.LoadConfigFromYAML(configPath)
	if err != nil {
		log.Printf(`{"level":"info", "error": "%v", "message": "failed to load config from filepath %v. trying RELAY_CONFIG environment variable..."}`, err, configPath)
		conf, err := configpkg.LoadConfigFromEnv()
		if err != nil {
			log.Fatalf(`{"level":"fatal","error":"%v","message":"failed to load config from environment variable and filepath"}`, err)
		}
		config = conf
	}

	// Initialize the logger
	logger := zerolog.New(os.Stderr).
		Level(config.Logger.ZerologLevel()).
		With().
		Timestamp().
		Logger()

	logger.Info().Msgf("Starting relay gateway using config file: %s", configPath)

	// Create a context for background services (pprof, observation queue) that
	// can be canceled during shutdown.
	backgroundCtx, backgroundCancel := context.WithCancel(context.Background())
	defer backgroundCancel()

	// Create the shared Redis client when the session store needs one.
	// A single client is built at startup and injected, so the pool is shared
	// rather than re-dialed per operation.
	var redisClient *redis.Client
	if config.Session.Type == session.StoreTypeRedis {
		redisClient = redis.NewClient(&redis.Options{
			Addr:         config.Session.Redis.Address,
			Password:     config.Session.Redis.Password,
			DB:           config.Session.Redis.DB,
			PoolSize:     config.Session.Redis.PoolSize,
			DialTimeout:  config.Session.Redis.DialTimeout,
			ReadTimeout:  config.Session.Redis.ReadTimeout,
			WriteTimeout: config.Session.Redis.WriteTimeout,
		})
	}

	// Build the session store
	sessionStore, err := getSessionStore(backgroundCtx, logger, config, redisClient)
	if err != nil {
		log.Fatalf(`{"level":"fatal","error":"%v","message":"failed to create session store"}`, err)
	}

	// Setup metrics reporter, exported on the Prometheus address
	metricsReporter, err := setupMetricsServer(logger, config.Metrics.PrometheusAddr)
	if err != nil {
		log.Fatalf(`{"level":"fatal","error":"%v","message":"failed to start metrics server"}`, err)
	}

	// Setup the pprof server with the background context for graceful shutdown
	setupPprofServer(backgroundCtx, logger, config.Metrics.PprofAddr)

	// Setup the observation queue for async per-relay audit and metrics
	// publishing. Reporting happens off the hot path: the handler queues one
	// observation per request and workers fan it out to the reporters.
	var observationQueue *relay.Queue
	if config.Observation.Enabled {
		queueConfig := config.Observation
		queueConfig.DropHook = metrics.ObservationQueueDropped.Inc

		observationQueue = relay.NewQueue(queueConfig, logger)
		observationQueue.AddReporter(metricsReporter)
		observationQueue.AddReporter(&relay.LogReporter{Logger: logger})

		logger.Info().
			Int("worker_count", queueConfig.WorkerCount).
			Int("queue_size", queueConfig.QueueSize).
			Msg("Observation queue initialized")
	}

	// Build the outbound HTTP client. A zero timeout leaves the transport
	// default in place: outbound calls are not bounded by the relay.
	httpClient := &http.Client{Timeout: config.Relay.OutboundTimeout}

	rl := &relay.Relay{
		Logger:              logger,
		Sessions:            sessionStore,
		HTTPClient:          httpClient,
		ObservationQueue:    observationQueue,
		MaxRawResponseBytes: config.Relay.MaxRawResponseBytes,
	}

	// Until all components are ready, the `/healthz` endpoint will return a
	// 503 Service Unavailable status; once all components are ready, it will
	// return a 200 OK status.
	healthChecker := &health.Checker{
		Logger: logger,
		Components: []health.Check{
			health.CheckFn{
				ComponentName: "session_store",
				Fn: func() bool {
					ctx, cancel := context.WithTimeout(backgroundCtx, 3*time.Second)
					defer cancel()
					return sessionStore.Ping(ctx) == nil
				},
			},
		},
	}

	// Initialize the API router to serve relay requests.
	apiRouter := router.NewRouter(
		logger,
		rl,
		healthChecker,
		sessionStore,
		&config,
		config.GetRouterConfig(),
	)

	/* -------------------- Start Relay API Router -------------------- */

	server, err := apiRouter.Start()
	if err != nil {
		logger.Error().Err(err).Msg("failed to start relay API router")
	}

	/* -------------------- Log Startup Summary -------------------- */

	versionInfo := "dev"
	if Version != "" {
		versionInfo = Version
		if Commit != "" {
			versionInfo += " (" + Commit[:min(7, len(Commit))] + ")"
		}
	}

	logger.Info().
		Str("version", versionInfo).
		Str("build_date", BuildDate).
		Str("session_store", config.Session.Type).
		Msg("Relay gateway initialized")

	logger.Info().
		Int("port", config.GetRouterConfig().Port).
		Str("metrics_addr", config.Metrics.PrometheusAddr).
		Str("pprof_addr", config.Metrics.PprofAddr).
		Msg("Servers listening")

	logger.Info().
		Str("relay", fmt.Sprintf("http://localhost:%d/v1/relay", config.GetRouterConfig().Port)).
		Str("health", fmt.Sprintf("http://localhost:%d/healthz", config.GetRouterConfig().Port)).
		Str("metrics", fmt.Sprintf("http://%s/metrics", config.Metrics.PrometheusAddr)).
		Str("pprof", fmt.Sprintf("http://%s/debug/pprof/", config.Metrics.PprofAddr)).
		Msg("Available endpoints")

	logger.Info().Msg("Relay gateway ready to accept requests")

	/* -------------------- Shutdown -------------------- */

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info().Msg("Shutting down relay gateway...")

	// Cancel background context to stop all background services (pprof)
	backgroundCancel()

	// Stop the observation queue to drain pending observations
	if observationQueue != nil {
		observationQueue.Stop()
	}

	// Close the session store, then the shared Redis client behind it
	if err := sessionStore.Close(); err != nil {
		logger.Warn().Err(err).Msg("Failed to close session store")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			logger.Warn().Err(err).Msg("Failed to close Redis client")
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Relay gateway forced to shutdown")
	}

	logger.Info().Msg("Relay gateway exited properly")
}

/* -------------------- Gateway Init Helpers -------------------- */

// getSessionStore builds the configured session storage backend.
func getSessionStore(
	ctx context.Context,
	logger zerolog.Logger,
	config configpkg.Config,
	redisClient *redis.Client,
) (session.Store, error) {
	switch config.Session.Type {
	case session.StoreTypeRedis:
		store, err := session.NewRedisStore(ctx, redisClient, config.Session.Redis.KeyPrefix, config.Session.TTL)
		if err != nil {
			return nil, err
		}
		logger.Info().
			Str("address", config.Session.Redis.Address).
			Str("key_prefix", config.Session.Redis.KeyPrefix).
			Msg("Redis session store initialized")
		return store, nil
	case session.StoreTypeMemory:
		logger.Info().Msg("In-memory session store initialized")
		return session.NewMemoryStore(config.Session.TTL), nil
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", config.Session.Type)
	}
}

// getConfigPath returns the full path to the config file relative to the executable.
//
// Priority for determining config path:
// - If `-config` flag is set, use its value
// - Otherwise, use defaultConfigPath relative to executable directory
func getConfigPath(defaultConfigPath string) (string, error) {
	var configPath string

	// Check for -config flag override
	flag.StringVar(&configPath, "config", "", "override the default config path")
	flag.Parse()
	if configPath != "" {
		return configPath, nil
	}

	// Get executable directory for default path
	exeDir, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	configPath = filepath.Join(filepath.Dir(exeDir), defaultConfigPath)

	return configPath, nil
}
