// Package nodeinfo reads prover status from the node binary itself,
// supplementing what the journal exposes.
package nodeinfo

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wolfcubecho/quil-monitor/internal/journal"
)

// Info is one snapshot of the node's self-reported status.
type Info struct {
	Ring          int
	ActiveWorkers int
	Seniority     int
	OwnedBalance  decimal.Decimal
}

var (
	ringRe      = regexp.MustCompile(`Prover Ring: (\d+)`)
	workersRe   = regexp.MustCompile(`Active Workers: (\d+)`)
	seniorityRe = regexp.MustCompile(`Seniority: (\d+)`)
	balanceRe   = regexp.MustCompile(`Owned balance: ([0-9]+(?:\.[0-9]+)?)\s*QUIL`)
)

// Runner aliases the journal exec seam; both packages shell out the
// same way.
type Runner = journal.Runner

// Options parameterise the node-info collector.
type Options struct {
	// Binary is the path to the node executable.
	Binary  string
	Timeout time.Duration
}

// Collector invokes the node binary's --node-info command and parses
// the fields out of its output.
type Collector struct {
	opts   Options
	run    journal.Runner
	logger zerolog.Logger
}

// New constructs a collector that executes the real binary.
func New(opts Options, logger zerolog.Logger) *Collector {
	return NewWithRunner(opts, nil, logger)
}

// NewWithRunner constructs a collector with a custom command runner.
func NewWithRunner(opts Options, run Runner, logger zerolog.Logger) *Collector {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	return &Collector{
		opts:   opts,
		run:    run,
		logger: logger.With().Str("component", "nodeinfo").Logger(),
	}
}

// Info runs the binary and returns the parsed snapshot. Fields absent
// from the output are left at zero.
func (c *Collector) Info(ctx context.Context) (*Info, error) {
	if c.opts.Binary == "" {
		return nil, fmt.Errorf("node binary not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	run := c.run
	if run == nil {
		run = journal.DefaultRunner
	}

	out, err := run(ctx, c.opts.Binary, "--node-info")
	if err != nil {
		return nil, fmt.Errorf("%s --node-info: %w", c.opts.Binary, err)
	}

	info := &Info{}
	text := string(out)
	info.Ring = matchInt(ringRe, text)
	info.ActiveWorkers = matchInt(workersRe, text)
	info.Seniority = matchInt(seniorityRe, text)
	if m := balanceRe.FindStringSubmatch(text); m != nil {
		if bal, convErr := decimal.NewFromString(m[1]); convErr == nil {
			info.OwnedBalance = bal
		}
	}

	c.logger.Debug().
		Int("ring", info.Ring).
		Int("workers", info.ActiveWorkers).
		Int("seniority", info.Seniority).
		Msg("node info read")
	return info, nil
}

func matchInt(re *regexp.Regexp, text string) int {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
