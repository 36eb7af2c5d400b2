package journal

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Runner executes a command and returns its standard output. Tests substitute
// a fake to avoid depending on a live journald.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// DefaultRunner shells out for real. Stderr is not mixed into the result;
// on failure exec surfaces it through *exec.ExitError.
func DefaultRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// Source yields recent log lines for a named service.
type Source interface {
	Lines(ctx context.Context) ([]string, error)
}

// Options parameterise the journald reader.
type Options struct {
	Unit    string
	Since   string
	Timeout time.Duration
}

// Journald reads log lines for a systemd unit via journalctl.
type Journald struct {
	opts   Options
	run    Runner
	logger zerolog.Logger
}

// New constructs a journald source.
func New(opts Options, logger zerolog.Logger) *Journald {
	return NewWithRunner(opts, DefaultRunner, logger)
}

// NewWithRunner constructs a journald source with a custom command runner.
func NewWithRunner(opts Options, run Runner, logger zerolog.Logger) *Journald {
	if opts.Since == "" {
		opts.Since = "today"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Journald{
		opts:   opts,
		run:    run,
		logger: logger.With().Str("component", "journal").Logger(),
	}
}

// Lines fetches the unit's log lines since the configured start. A failure
// here is the one error the monitor treats as fatal for the run: without log
// lines there is nothing to aggregate.
func (j *Journald) Lines(ctx context.Context) ([]string, error) {
	if j.opts.Unit == "" {
		return nil, fmt.Errorf("journal unit not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, j.opts.Timeout)
	defer cancel()

	args := []string{
		"-u", j.opts.Unit,
		"--since", j.opts.Since,
		"--no-pager",
		"--no-hostname",
		"-o", "short-iso",
	}

	out, err := j.run(ctx, "journalctl", args...)
	if err != nil {
		return nil, fmt.Errorf("journalctl -u %s: %w", j.opts.Unit, err)
	}

	raw := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}

	j.logger.Debug().Int("lines", len(lines)).Str("unit", j.opts.Unit).Msg("journal read")
	return lines, nil
}

var _ Source = (*Journald)(nil)
