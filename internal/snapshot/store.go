// Sessionscope - Application Usage Analytics and Session Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/sessionscope

package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/tomtom215/sessionscope/internal/logging"
	"github.com/tomtom215/sessionscope/internal/metrics"
	"github.com/tomtom215/sessionscope/internal/models"
)

// Store persists the canonical dataset to a single JSON file. It has no
// internal concurrency: the aggregator serializes all Load/Save calls under
// its own data mutex.
//
// Writes are whole-file overwrites, not atomic renames; a crash mid-write
// can corrupt the snapshot. Load degrades a corrupt or missing file to an
// empty dataset, so the system always starts in a usable state.
type Store struct {
	path    string
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewStore creates a snapshot store for the given file path. The save path
// runs through a circuit breaker: after repeated consecutive write failures
// (disk full, permissions) the breaker opens and save attempts are rejected
// cheaply until the cooldown elapses.
func NewStore(path string) *Store {
	settings := gobreaker.Settings{
		Name:    "snapshot-save",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Snapshot save breaker state change")
		},
	}

	return &Store{
		path:    path,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Path returns the snapshot file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the snapshot file and returns the dataset. Failures are
// logged, never returned: a missing file yields an empty dataset at info
// level, malformed content an empty dataset at error level.
func (s *Store) Load() *models.Dataset {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Info().
				Str("path", s.path).
				Msg("No snapshot found, starting with empty dataset")
		} else {
			logging.Error().
				Err(err).
				Str("path", s.path).
				Msg("Failed to read snapshot, starting with empty dataset")
		}
		return models.NewDataset()
	}

	ds := models.NewDataset()
	if err := json.Unmarshal(data, ds); err != nil {
		logging.Error().
			Err(err).
			Str("path", s.path).
			Msg("Malformed snapshot, starting with empty dataset")
		return models.NewDataset()
	}

	ds.Normalize()

	logging.Info().
		Str("path", s.path).
		Int("sessions", len(ds.Sessions)).
		Int("users", len(ds.UserStats)).
		Int("days", len(ds.DailyStats)).
		Msg("Snapshot loaded")

	return ds
}

// Save serializes the dataset and overwrites the snapshot file in place.
// The returned error is for logging; in-memory state stays authoritative
// and the next successful flush re-persists everything.
func (s *Store) Save(ds *models.Dataset) error {
	_, err := s.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, s.write(ds)
	})
	if err != nil {
		metrics.SnapshotSaveErrors.Inc()
		return err
	}

	metrics.SnapshotSaves.Inc()
	return nil
}

// write performs the actual marshal-and-overwrite.
func (s *Store) write(ds *models.Dataset) error {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create snapshot directory: %w", err)
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	return nil
}
