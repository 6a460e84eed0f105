package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/danweboptic/casestudies-relay/relay"
	"github.com/danweboptic/casestudies-relay/session"
)

/* ---------------------------------  Relay Gateway Config Struct -------------------------------- */

// Config contains all configuration details needed to operate the relay
// gateway, parsed from a YAML config file.
type Config struct {
	Router      RouterConfig        `yaml:"router_config"`
	Logger      LoggerConfig        `yaml:"logger_config"`
	Metrics     MetricsConfig       `yaml:"metrics_config"`
	Relay       RelayConfig         `yaml:"relay_config"`
	Session     session.StoreConfig `yaml:"session_config"`
	Observation relay.QueueConfig   `yaml:"observation_config"`
}

type EnvConfigError struct {
	Description string
}

func (c EnvConfigError) Error() string {
	return c.Description
}

// envConfigVar is the environment variable holding a full YAML config as a
// fallback when no config file is present (e.g. containerized deploys).
const envConfigVar = "RELAY_CONFIG"

// LoadConfigFromYAML reads a YAML configuration file from the specified path
// and unmarshals its content into a Config instance.
func LoadConfigFromYAML(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var config Config
	if err = yaml.Unmarshal(data, &config); err != nil {
		return Config{}, err
	}

	if err = config.hydrateDefaults(); err != nil {
		return Config{}, err
	}

	return config, config.validate()
}

// LoadConfigFromEnv parses the configuration from the RELAY_CONFIG
// environment variable.
func LoadConfigFromEnv() (Config, error) {
	conf := os.Getenv(envConfigVar)

	if conf == "" {
		return Config{}, EnvConfigError{Description: "Failed to load config from RELAY_CONFIG environment variable"}
	}

	var config Config
	if err := yaml.Unmarshal([]byte(conf), &config); err != nil {
		return Config{}, err
	}

	if err := config.hydrateDefaults(); err != nil {
		return Config{}, err
	}

	return config, config.validate()
}

/* --------------------------------- Config Methods -------------------------------- */

func (c *Config) GetRouterConfig() RouterConfig {
	return c.Router
}

// GetSanitizedConfig returns a view of the active configuration safe to
// expose on the /config endpoint. All sensitive information (the Redis
// password) is redacted.
func (c *Config) GetSanitizedConfig() map[string]interface{} {
	sanitized := map[string]interface{}{
		"router_config": map[string]interface{}{
			"port":          c.Router.Port,
			"read_timeout":  c.Router.ReadTimeout.String(),
			"write_timeout": c.Router.WriteTimeout.String(),
			"idle_timeout":  c.Router.IdleTimeout.String(),
		},
		"logger_config": map[string]interface{}{
			"level": c.Logger.Level,
		},
		"metrics_config": map[string]interface{}{
			"prometheus_addr": c.Metrics.PrometheusAddr,
			"pprof_addr":      c.Metrics.PprofAddr,
		},
		"relay_config": map[string]interface{}{
			"outbound_timeout":       c.Relay.OutboundTimeout.String(),
			"max_raw_response_bytes": c.Relay.MaxRawResponseBytes,
		},
		"observation_config": map[string]interface{}{
			"enabled":      c.Observation.Enabled,
			"worker_count": c.Observation.WorkerCount,
			"queue_size":   c.Observation.QueueSize,
		},
	}

	sessionConfig := map[string]interface{}{
		"type": c.Session.Type,
		"ttl":  c.Session.TTL.String(),
	}
	if c.Session.Redis != nil {
		sessionConfig["redis"] = map[string]interface{}{
			"address":    c.Session.Redis.Address,
			"db":         c.Session.Redis.DB,
			"pool_size":  c.Session.Redis.PoolSize,
			"key_prefix": c.Session.Redis.KeyPrefix,
			// password deliberately omitted
		}
	}
	sanitized["session_config"] = sessionConfig

	return sanitized
}

/* --------------------------------- Config Hydration Helpers -------------------------------- */

func (c *Config) hydrateDefaults() error {
	if err := c.Router.hydrateRouterDefaults(); err != nil {
		return fmt.Errorf("invalid router config: %w", err)
	}
	if err := c.Relay.hydrateRelayDefaults(); err != nil {
		return fmt.Errorf("invalid relay config: %w", err)
	}
	c.Logger.hydrateLoggerDefaults()
	c.Metrics.hydrateMetricsDefaults()
	c.Session.HydrateDefaults()
	c.Observation.HydrateDefaults()
	return nil
}

/* --------------------------------- Config Validation Helpers -------------------------------- */

func (c *Config) validate() error {
	if err := c.Logger.Validate(); err != nil {
		return err
	}
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return nil
}
