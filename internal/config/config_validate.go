// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package config

import (
	"fmt"
	"time"
)

// Validate checks that required configuration is present and valid.
func (c *Config) Validate() error {
	if err := c.validateSnapshot(); err != nil {
		return err
	}

	if err := c.validateAggregator(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	return c.validateLogging()
}

func (c *Config) validateSnapshot() error {
	if c.Snapshot.Path == "" {
		return fmt.Errorf("SNAPSHOT_PATH must not be empty")
	}
	return nil
}

func (c *Config) validateAggregator() error {
	if c.Aggregator.BatchInterval < time.Second {
		return fmt.Errorf("BATCH_INTERVAL must be at least 1s, got %s", c.Aggregator.BatchInterval)
	}
	if c.Aggregator.QueueCapacity <= 0 {
		return fmt.Errorf("QUEUE_CAPACITY must be positive, got %d", c.Aggregator.QueueCapacity)
	}
	if c.Aggregator.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.Aggregator.CacheTTL)
	}
	if c.Aggregator.RetentionDays < 0 {
		return fmt.Errorf("RETENTION_DAYS must not be negative, got %d", c.Aggregator.RetentionDays)
	}
	return nil
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %s", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of trace/debug/info/warn/error/fatal/panic, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
