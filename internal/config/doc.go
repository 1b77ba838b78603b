// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

// Package config loads layered configuration via Koanf v2: built-in struct
// defaults, then an optional YAML config file, then environment variables
// (highest priority). Only recognized environment variables are mapped;
// everything else in the process environment is ignored.
package config
