// Package settings manages the runtime-adjustable settings persisted to a
// JSON file: the run schedule, per-kind enable flags and upgrade counts.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// Settings are the runtime knobs of the upgrade engine.
type Settings struct {
	Cron              string `json:"cron"`
	ProcessMovies     bool   `json:"processMovies"`
	ProcessEpisodes   bool   `json:"processEpisodes"`
	MoviesToUpgrade   int    `json:"moviesToUpgrade"`
	EpisodesToUpgrade int    `json:"episodesToUpgrade"`
}

// Default returns the settings used when no file exists yet.
func Default() Settings {
	return Settings{
		Cron:              "*/5 * * * *",
		ProcessMovies:     true,
		ProcessEpisodes:   true,
		MoviesToUpgrade:   1,
		EpisodesToUpgrade: 1,
	}
}

// Validate checks the invariants a settings update must hold.
func (s Settings) Validate() error {
	if s.Cron == "" {
		return errors.New("cron expression must not be empty")
	}
	if s.MoviesToUpgrade < 0 || s.EpisodesToUpgrade < 0 {
		return errors.New("upgrade counts must not be negative")
	}
	return nil
}

// Store loads, serves and persists settings. Reads and writes are safe for
// concurrent use.
type Store struct {
	path   string
	logger zerolog.Logger

	mu      sync.RWMutex
	current Settings
}

// NewStore creates a store backed by the file at path, loading it if it
// exists and falling back to defaults otherwise. A corrupt file is logged
// and replaced by defaults rather than failing startup.
func NewStore(path string, logger zerolog.Logger) *Store {
	s := &Store{
		path:    path,
		logger:  logger.With().Str("component", "settings").Logger(),
		current: Default(),
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", path).Msg("failed to read settings file, using defaults")
		}
		return s
	}
	var loaded Settings
	if err := json.Unmarshal(data, &loaded); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("failed to parse settings file, using defaults")
		return s
	}
	if err := loaded.Validate(); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("settings file invalid, using defaults")
		return s
	}
	s.current = loaded
	return s
}

// Get returns the current settings.
func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update validates and persists new settings, then makes them current.
// The file is written atomically via a temp file and rename.
func (s *Store) Update(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path != "" {
		if err := writeFileAtomic(s.path, next); err != nil {
			return fmt.Errorf("failed to persist settings: %w", err)
		}
	}
	s.current = next
	s.logger.Info().Str("cron", next.Cron).Msg("settings updated")
	return nil
}

func writeFileAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
