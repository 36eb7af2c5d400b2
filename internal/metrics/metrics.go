package metrics

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wolfcubecho/quil-monitor/internal/parser"
)

// DateLayout is the calendar-day key format used throughout persistence.
const DateLayout = "2006-01-02"

// Thresholds are the shard duration bucket boundaries in seconds.
type Thresholds struct {
	FastUnder float64
	SlowOver  float64
}

// DefaultThresholds matches the documented fast/medium/slow split.
var DefaultThresholds = Thresholds{FastUnder: 30, SlowOver: 60}

// Buckets counts shards per processing-time category.
type Buckets struct {
	Fast   int `json:"fast"`
	Medium int `json:"medium"`
	Slow   int `json:"slow"`
}

// Total sums all bucket counts.
func (b Buckets) Total() int {
	return b.Fast + b.Medium + b.Slow
}

// DailyRecord aggregates metrics for one calendar day.
type DailyRecord struct {
	Date        string          `json:"date"`
	Balance     decimal.Decimal `json:"balance"`
	Earnings    decimal.Decimal `json:"earnings"`
	ShardCount  int             `json:"shard_count"`
	DurationSum float64         `json:"duration_sum"`
	Buckets     Buckets         `json:"buckets"`
}

// AvgDuration returns the mean shard processing time in seconds.
func (r DailyRecord) AvgDuration() float64 {
	if r.ShardCount == 0 {
		return 0
	}
	return r.DurationSum / float64(r.ShardCount)
}

// History is the full persisted collection of daily records, keyed by date.
type History struct {
	Records map[string]DailyRecord `json:"daily"`
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{Records: make(map[string]DailyRecord)}
}

// Dates returns every stored date key in chronological order.
func (h *History) Dates() []string {
	dates := make([]string, 0, len(h.Records))
	for d := range h.Records {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// Get looks up the record for a date key.
func (h *History) Get(date string) (DailyRecord, bool) {
	rec, ok := h.Records[date]
	return rec, ok
}

// Upsert stores a record under its date key. The current day is the only
// record expected to be replaced; past days stay as written.
func (h *History) Upsert(rec DailyRecord) {
	if h.Records == nil {
		h.Records = make(map[string]DailyRecord)
	}
	h.Records[rec.Date] = rec
}

// LastBalanceBefore returns the stored balance of the most recent day
// strictly before the given date key.
func (h *History) LastBalanceBefore(date string) (decimal.Decimal, bool) {
	var (
		found bool
		best  string
	)
	for d := range h.Records {
		if d >= date {
			continue
		}
		if !found || d > best {
			found = true
			best = d
		}
	}
	if !found {
		return decimal.Zero, false
	}
	return h.Records[best].Balance, true
}

// RollingAverage computes the arithmetic mean of daily earnings over the
// trailing window ending at day, inclusive. Days without a record are
// excluded from the mean rather than counted as zero; whether gaps should
// instead count as zero-earnings days is an open product question.
func (h *History) RollingAverage(day time.Time, days int) decimal.Decimal {
	if days <= 0 {
		return decimal.Zero
	}

	sum := decimal.Zero
	n := 0
	for i := 0; i < days; i++ {
		date := day.AddDate(0, 0, -i).Format(DateLayout)
		rec, ok := h.Records[date]
		if !ok {
			continue
		}
		sum = sum.Add(rec.Earnings)
		n++
	}
	if n == 0 {
		return decimal.Zero
	}
	return sum.Div(decimal.NewFromInt(int64(n)))
}

// Trailing returns the records of the trailing window ending at day,
// newest first, skipping days with no record.
func (h *History) Trailing(day time.Time, days int) []DailyRecord {
	out := make([]DailyRecord, 0, days)
	for i := 0; i < days; i++ {
		date := day.AddDate(0, 0, -i).Format(DateLayout)
		if rec, ok := h.Records[date]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Aggregator folds parsed events into daily records.
type Aggregator struct {
	thresholds Thresholds
}

// NewAggregator constructs an aggregator with the given bucket boundaries.
func NewAggregator(t Thresholds) *Aggregator {
	if t.FastUnder <= 0 || t.SlowOver <= t.FastUnder {
		t = DefaultThresholds
	}
	return &Aggregator{thresholds: t}
}

// Categorize assigns a duration to its bucket.
func (a *Aggregator) Categorize(seconds float64, b *Buckets) {
	switch {
	case seconds < a.thresholds.FastUnder:
		b.Fast++
	case seconds <= a.thresholds.SlowOver:
		b.Medium++
	default:
		b.Slow++
	}
}

// Thresholds exposes the configured boundaries for display.
func (a *Aggregator) Thresholds() Thresholds {
	return a.thresholds
}

// BuildDay computes the record for day from scratch out of the parsed
// events, merging balance context from history. The journal query re-reads
// the whole day on every run, so the day's counts are rebuilt rather than
// incremented; earlier days are never touched.
func (a *Aggregator) BuildDay(hist *History, day time.Time, ev parser.Events) DailyRecord {
	date := day.Format(DateLayout)
	rec := DailyRecord{Date: date}

	for _, shard := range ev.Shards {
		if !shard.Timestamp.IsZero() && shard.Timestamp.Format(DateLayout) != date {
			continue
		}
		// One shard equals one creation proof; submissions are the same
		// frame seen again and would double-count it.
		if shard.Stage == parser.StageSubmission {
			continue
		}
		rec.ShardCount++
		rec.DurationSum += shard.Duration
		a.Categorize(shard.Duration, &rec.Buckets)
	}

	rec.Balance = a.resolveBalance(hist, date, ev)

	prev, ok := hist.LastBalanceBefore(date)
	if ok {
		delta := rec.Balance.Sub(prev)
		// Outbound transfers shrink the balance; that is not negative income.
		if delta.Sign() > 0 {
			rec.Earnings = delta
		} else {
			rec.Earnings = decimal.Zero
		}
	} else {
		// First day ever observed: a full wallet is not one day of earnings.
		rec.Earnings = decimal.Zero
	}

	return rec
}

func (a *Aggregator) resolveBalance(hist *History, date string, ev parser.Events) decimal.Decimal {
	if n := len(ev.Balances); n > 0 {
		return ev.Balances[n-1].Balance
	}
	// No balance line today: carry whatever we knew last.
	if rec, ok := hist.Get(date); ok {
		return rec.Balance
	}
	if prev, ok := hist.LastBalanceBefore(date); ok {
		return prev
	}
	return decimal.Zero
}
