package parser

import (
	"regexp"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Stage identifies which phase of the proof pipeline a shard event
// belongs to. The node logs a frame twice: once when it starts creating
// the proof and once when it submits it.
type Stage string

const (
	StageCreation   Stage = "creation"
	StageSubmission Stage = "submission"
)

// ShardEvent is one proof-pipeline log line for a frame.
type ShardEvent struct {
	Timestamp time.Time
	Stage     Stage
	Frame     uint64
	// Duration is the frame age in seconds at the time of the event.
	Duration float64
}

// BalanceEvent is an observed owned-balance report.
type BalanceEvent struct {
	Timestamp time.Time
	Balance   decimal.Decimal
}

// Events groups everything extracted from one batch of log lines.
type Events struct {
	Shards   []ShardEvent
	Balances []BalanceEvent
}

// rule pairs a pattern with its extractor. Rules are evaluated in order,
// first match wins; a line matching no rule is skipped.
type rule struct {
	re      *regexp.Regexp
	extract func(ts time.Time, m []string, out *Events)
}

var (
	creationRe   = regexp.MustCompile(`creating data shard ring proof.*"frame_number":(\d+).*"frame_age":([0-9]+(?:\.[0-9]+)?)`)
	submissionRe = regexp.MustCompile(`submitting data proof.*"frame_number":(\d+).*"frame_age":([0-9]+(?:\.[0-9]+)?)`)
	balanceRe    = regexp.MustCompile(`[Oo]wned balance[^0-9]*([0-9]+(?:\.[0-9]+)?)\s*QUIL`)

	// journald short-iso prefix, e.g. 2026-08-23T01:02:03+0000
	tsRe = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}[+-]\d{4})`)
)

// The submission rule comes first: its lines also contain the
// "data shard ring proof" phrase and must not be taken for creations.
var rules = []rule{
	{re: submissionRe, extract: shardExtractor(StageSubmission)},
	{re: creationRe, extract: shardExtractor(StageCreation)},
	{
		re: balanceRe,
		extract: func(ts time.Time, m []string, out *Events) {
			bal, err := decimal.NewFromString(m[1])
			if err != nil {
				return
			}
			out.Balances = append(out.Balances, BalanceEvent{Timestamp: ts, Balance: bal})
		},
	},
}

func shardExtractor(stage Stage) func(ts time.Time, m []string, out *Events) {
	return func(ts time.Time, m []string, out *Events) {
		frame, err := strconv.ParseUint(m[1], 10, 64)
		if err != nil {
			return
		}
		age, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return
		}
		out.Shards = append(out.Shards, ShardEvent{Timestamp: ts, Stage: stage, Frame: frame, Duration: age})
	}
}

// Parser extracts typed events from raw log lines. Extraction is best-effort:
// malformed numeric fields drop the line, they never raise.
type Parser struct {
	now func() time.Time
}

// New constructs a parser. The clock supplies timestamps for lines without a
// parseable journald prefix.
func New(now func() time.Time) *Parser {
	if now == nil {
		now = time.Now
	}
	return &Parser{now: now}
}

// Parse scans lines in order and returns every extracted event.
func (p *Parser) Parse(lines []string) Events {
	var out Events
	for _, line := range lines {
		ts := p.lineTime(line)
		for _, r := range rules {
			m := r.re.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			r.extract(ts, m, &out)
			break
		}
	}
	return out
}

func (p *Parser) lineTime(line string) time.Time {
	m := tsRe.FindStringSubmatch(line)
	if m == nil {
		return p.now()
	}
	ts, err := time.Parse("2006-01-02T15:04:05-0700", m[1])
	if err != nil {
		return p.now()
	}
	return ts
}
