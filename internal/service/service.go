package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/wolfcubecho/quil-monitor/internal/alerting"
	"github.com/wolfcubecho/quil-monitor/internal/journal"
	"github.com/wolfcubecho/quil-monitor/internal/metrics"
	"github.com/wolfcubecho/quil-monitor/internal/nodeinfo"
	"github.com/wolfcubecho/quil-monitor/internal/parser"
	"github.com/wolfcubecho/quil-monitor/internal/report"
	"github.com/wolfcubecho/quil-monitor/internal/storage"
)

// PriceSource yields a USD conversion rate.
type PriceSource interface {
	Fetch(ctx context.Context) (decimal.Decimal, error)
}

// NodeInfoSource yields the node's self-reported prover status.
type NodeInfoSource interface {
	Info(ctx context.Context) (*nodeinfo.Info, error)
}

// Options wire up a collection service.
type Options struct {
	NodeName  string
	DailyCSV  string
	ShardsCSV string
}

// Service performs one run-to-completion collection pass: read the journal,
// parse events, fold them into the history, persist, and report. Other than
// an unreadable journal every failure degrades with a warning instead of
// aborting the run.
type Service struct {
	opts     Options
	source   journal.Source
	parser   *parser.Parser
	agg      *metrics.Aggregator
	state    *storage.StateFile
	mirror   storage.DailyRecordStore
	price    PriceSource
	node     NodeInfoSource
	notifier alerting.Notifier
	out      io.Writer
	logger   zerolog.Logger
}

// New constructs the collection service. mirror, node, and notifier may
// be nil.
func New(opts Options, source journal.Source, p *parser.Parser, agg *metrics.Aggregator, state *storage.StateFile, mirror storage.DailyRecordStore, price PriceSource, node NodeInfoSource, notifier alerting.Notifier, out io.Writer, logger zerolog.Logger) *Service {
	return &Service{
		opts:     opts,
		source:   source,
		parser:   p,
		agg:      agg,
		state:    state,
		mirror:   mirror,
		price:    price,
		node:     node,
		notifier: notifier,
		out:      out,
		logger:   logger.With().Str("component", "service").Logger(),
	}
}

// Collect executes one pass for the given wall-clock time and returns the
// summary it reported.
func (s *Service) Collect(ctx context.Context, now time.Time) (report.Summary, error) {
	lines, err := s.source.Lines(ctx)
	if err != nil {
		return report.Summary{}, fmt.Errorf("read node logs: %w", err)
	}

	events := s.parser.Parse(lines)
	s.logger.Debug().
		Int("lines", len(lines)).
		Int("shards", len(events.Shards)).
		Int("balances", len(events.Balances)).
		Msg("parsed journal")

	hist, err := s.state.Load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("history unreadable, continuing with empty state")
	}

	today := s.agg.BuildDay(hist, now, events)
	hist.Upsert(today)

	if err := s.state.Save(hist); err != nil {
		s.logger.Warn().Err(err).Msg("failed to save history file")
	}

	if s.mirror != nil {
		if err := s.mirror.UpsertDailyRecord(ctx, today); err != nil {
			s.logger.Warn().Err(err).Msg("failed to mirror record to database")
		}
	}

	rate := decimal.Zero
	if s.price != nil {
		fetched, err := s.price.Fetch(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("price fetch failed, using cached or zero rate")
		}
		rate = fetched
	}

	var info *nodeinfo.Info
	if s.node != nil {
		info, err = s.node.Info(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("node info unavailable, omitting from report")
		}
	}

	perf := metrics.BuildPerformance(now, events.Shards)
	summary := report.Build(s.opts.NodeName, now, rate, today, s.agg.Thresholds(), perf, info, hist)

	if err := report.RenderTerminal(s.out, summary); err != nil {
		s.logger.Warn().Err(err).Msg("failed to render terminal summary")
	}

	if s.opts.DailyCSV != "" {
		if err := report.AppendDailyRow(s.opts.DailyCSV, summary); err != nil {
			s.logger.Warn().Err(err).Str("path", s.opts.DailyCSV).Msg("failed to append daily csv row")
		}
	}
	if s.opts.ShardsCSV != "" {
		if err := report.AppendShardRows(s.opts.ShardsCSV, summary); err != nil {
			s.logger.Warn().Err(err).Str("path", s.opts.ShardsCSV).Msg("failed to append shard csv rows")
		}
	}

	if s.notifier != nil {
		if err := s.notifier.Notify(ctx, report.RenderTelegram(summary)); err != nil {
			s.logger.Warn().Err(err).Msg("failed to send telegram report")
		}
	}

	return summary, nil
}
