package storage

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/wolfcubecho/quil-monitor/internal/metrics"
)

// StateFile persists the whole metrics history as a single JSON document.
// It is read fully at the start of a run and rewritten fully at the end;
// there is no locking, matching the tool's single-instance cron usage.
type StateFile struct {
	path   string
	logger zerolog.Logger
}

// NewStateFile constructs a state file store.
func NewStateFile(path string, logger zerolog.Logger) *StateFile {
	return &StateFile{
		path:   path,
		logger: logger.With().Str("component", "statefile").Logger(),
	}
}

// Path returns the backing file path.
func (s *StateFile) Path() string {
	return s.path
}

// Load reads the history from disk. A missing file yields an empty history
// without error (first run); a corrupt file yields an empty history plus the
// parse error so the caller can warn and continue degraded.
func (s *StateFile) Load() (*metrics.History, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Debug().Str("path", s.path).Msg("no history file yet, starting empty")
			return metrics.NewHistory(), nil
		}
		return metrics.NewHistory(), fmt.Errorf("read history file: %w", err)
	}

	hist := metrics.NewHistory()
	if err := json.Unmarshal(data, hist); err != nil {
		return metrics.NewHistory(), fmt.Errorf("parse history file %s: %w", s.path, err)
	}
	if hist.Records == nil {
		hist.Records = make(map[string]metrics.DailyRecord)
	}
	return hist, nil
}

// Save rewrites the history file in full.
func (s *StateFile) Save(hist *metrics.History) error {
	data, err := json.MarshalIndent(hist, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	return nil
}
