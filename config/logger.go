package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

/* --------------------------------- Logger Config Defaults -------------------------------- */

const defaultLogLevel = "info"

/* --------------------------------- Logger Config Struct -------------------------------- */

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// Default: "info"
	Level string `yaml:"level"`
}

/* --------------------------------- Logger Config Helpers -------------------------------- */

// hydrateLoggerDefaults assigns default values to LoggerConfig fields if they are not set.
func (c *LoggerConfig) hydrateLoggerDefaults() {
	if c.Level == "" {
		c.Level = defaultLogLevel
	}
}

// Validate checks that the configured level parses.
func (c *LoggerConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("invalid logger level %q: %w", c.Level, err)
	}
	return nil
}

// ZerologLevel returns the parsed zerolog level.
// Call Validate first; an unparseable level falls back to info.
func (c *LoggerConfig) ZerologLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
