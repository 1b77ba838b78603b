// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package config

import (
	"time"
)

// Config is the root configuration for Sessionscope.
type Config struct {
	Snapshot   SnapshotConfig   `koanf:"snapshot"`
	Aggregator AggregatorConfig `koanf:"aggregator"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// SnapshotConfig controls dataset persistence.
type SnapshotConfig struct {
	// Path is the snapshot file. The whole document is rewritten on each
	// flush.
	Path string `koanf:"path"`
}

// AggregatorConfig controls the batching pipeline.
type AggregatorConfig struct {
	// BatchInterval is the wall-clock period between background-worker
	// wake-ups that drain the update queue.
	BatchInterval time.Duration `koanf:"batch_interval"`

	// QueueCapacity bounds the update queue. At capacity the oldest
	// pending event is evicted.
	QueueCapacity int `koanf:"queue_capacity"`

	// CacheTTL is the default expiry for cached read-query results.
	CacheTTL time.Duration `koanf:"cache_ttl"`

	// RetentionDays is passed to CleanupOldSessions by operational
	// tooling. Zero disables any scheduled cleanup.
	RetentionDays int `koanf:"retention_days"`
}

// ServerConfig controls the read-only monitoring HTTP surface.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// LoggingConfig mirrors logging.Config for koanf unmarshaling.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns a Config with all sensible default values.
// Defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Snapshot: SnapshotConfig{
			Path: "/data/sessionscope.json",
		},
		Aggregator: AggregatorConfig{
			BatchInterval: 30 * time.Second,
			QueueCapacity: 10000,
			CacheTTL:      5 * time.Minute,
			RetentionDays: 0, // retention is operator-triggered by default
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    3857,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}
