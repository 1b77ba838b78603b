// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/sessionscope/config.yaml",
	"/etc/sessionscope/config.yml",
}

// ConfigPathEnvVar overrides the config file path when set.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources, lowest priority
// first:
//  1. Built-in defaults (struct provider)
//  2. Optional YAML config file
//  3. Environment variables
//
// The result is validated before being returned.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches the env override and the default paths, returning
// the first file that exists or empty string.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envVarPaths maps recognized environment variables to koanf config paths.
// Unknown variables are ignored so unrelated process environment never
// leaks into the configuration.
var envVarPaths = map[string]string{
	"SNAPSHOT_PATH":  "snapshot.path",
	"BATCH_INTERVAL": "aggregator.batch_interval",
	"QUEUE_CAPACITY": "aggregator.queue_capacity",
	"CACHE_TTL":      "aggregator.cache_ttl",
	"RETENTION_DAYS": "aggregator.retention_days",
	"HTTP_HOST":      "server.host",
	"HTTP_PORT":      "server.port",
	"HTTP_TIMEOUT":   "server.timeout",
	"LOG_LEVEL":      "logging.level",
	"LOG_FORMAT":     "logging.format",
	"LOG_CALLER":     "logging.caller",
}

// envTransformFunc maps environment variable names to koanf config paths.
// Returning an empty string tells the env provider to skip the variable.
func envTransformFunc(key string) string {
	return envVarPaths[strings.ToUpper(key)]
}
