package report

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wolfcubecho/quil-monitor/internal/metrics"
	"github.com/wolfcubecho/quil-monitor/internal/nodeinfo"
)

// Summary is the aggregated state a single run reports on. Reporters are
// pure formatting over this value; they hold no business logic.
type Summary struct {
	NodeName    string
	GeneratedAt time.Time
	Price       decimal.Decimal
	Today       metrics.DailyRecord
	Thresholds  metrics.Thresholds
	Performance metrics.Performance
	// Node is the self-reported prover status; nil when the node binary
	// is not configured or could not be queried.
	Node    *nodeinfo.Info
	Avg7    decimal.Decimal
	Avg30   decimal.Decimal
	History []metrics.DailyRecord
}

// Build assembles a summary from the aggregated history.
func Build(nodeName string, now time.Time, price decimal.Decimal, today metrics.DailyRecord, t metrics.Thresholds, perf metrics.Performance, node *nodeinfo.Info, hist *metrics.History) Summary {
	return Summary{
		NodeName:    nodeName,
		GeneratedAt: now,
		Price:       price,
		Today:       today,
		Thresholds:  t,
		Performance: perf,
		Node:        node,
		Avg7:        hist.RollingAverage(now, 7),
		Avg30:       hist.RollingAverage(now, 30),
		History:     hist.Trailing(now, 7),
	}
}

func (s Summary) usd(quil decimal.Decimal) string {
	return usdValue(quil, s.Price)
}

func usdValue(quil, price decimal.Decimal) string {
	return quil.Mul(price).StringFixed(2)
}

// WeeklyProjection extrapolates the 7-day average to a week.
func (s Summary) WeeklyProjection() decimal.Decimal {
	return s.Avg7.Mul(decimal.NewFromInt(7))
}

// MonthlyProjection extrapolates the 30-day average to a month.
func (s Summary) MonthlyProjection() decimal.Decimal {
	return s.Avg30.Mul(decimal.NewFromInt(30))
}

// RenderTerminal writes the human-readable summary.
func RenderTerminal(w io.Writer, s Summary) error {
	fmt.Fprintf(w, "=== QUIL Node Statistics: %s ===\n", s.NodeName)
	fmt.Fprintf(w, "Time: %s\n\n", s.GeneratedAt.Format("2006-01-02 15:04:05"))

	if s.Node != nil {
		fmt.Fprintf(w, "Node Information:\n")
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "Ring:\t%d\n", s.Node.Ring)
		fmt.Fprintf(tw, "Active Workers:\t%d\n", s.Node.ActiveWorkers)
		fmt.Fprintf(tw, "Seniority:\t%d\n", s.Node.Seniority)
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "QUIL Price:\t$%s\n", s.Price.StringFixed(4))
	fmt.Fprintf(tw, "Balance:\t%s QUIL ($%s)\n", s.Today.Balance.StringFixed(6), s.usd(s.Today.Balance))
	fmt.Fprintf(tw, "Today's Earnings:\t%s QUIL ($%s)\n", s.Today.Earnings.StringFixed(6), s.usd(s.Today.Earnings))
	fmt.Fprintf(tw, "Daily Average (7d):\t%s QUIL ($%s)\n", s.Avg7.StringFixed(6), s.usd(s.Avg7))
	fmt.Fprintf(tw, "Weekly Projection:\t%s QUIL ($%s)\n", s.WeeklyProjection().StringFixed(6), s.usd(s.WeeklyProjection()))
	fmt.Fprintf(tw, "Monthly Projection:\t%s QUIL ($%s)\n", s.MonthlyProjection().StringFixed(6), s.usd(s.MonthlyProjection()))
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\nShard Processing (today):\n")
	tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total Shards:\t%d\n", s.Today.ShardCount)
	fmt.Fprintf(tw, "Average Time:\t%.2fs\n", s.Today.AvgDuration())
	fmt.Fprintf(tw, "Fast (<%.0fs):\t%d (%.1f%%)\n", s.Thresholds.FastUnder, s.Today.Buckets.Fast, pct(s.Today.Buckets.Fast, s.Today.ShardCount))
	fmt.Fprintf(tw, "Medium (%.0f-%.0fs):\t%d (%.1f%%)\n", s.Thresholds.FastUnder, s.Thresholds.SlowOver, s.Today.Buckets.Medium, pct(s.Today.Buckets.Medium, s.Today.ShardCount))
	fmt.Fprintf(tw, "Slow (>%.0fs):\t%d (%.1f%%)\n", s.Thresholds.SlowOver, s.Today.Buckets.Slow, pct(s.Today.Buckets.Slow, s.Today.ShardCount))
	if err := tw.Flush(); err != nil {
		return err
	}

	landing := s.Performance.Landing
	fmt.Fprintf(w, "\nCurrent Performance:\n")
	fmt.Fprintf(w, "Landing Rate: %.2f%% (%d/%d frames)\n", landing.Pct(), landing.Transactions, landing.Frames)

	if err := renderStage(w, "Creation Stage (Network Latency)", s.Performance.Creation, metrics.CreationThresholds); err != nil {
		return err
	}
	if err := renderStage(w, "Submission Stage (Total Time)", s.Performance.Submission, metrics.SubmissionThresholds); err != nil {
		return err
	}
	if err := renderStage(w, "CPU Processing Time", s.Performance.CPU, metrics.CPUThresholds); err != nil {
		return err
	}

	if len(s.History) > 0 {
		fmt.Fprintf(w, "\nHistory (last %d days):\n", len(s.History))
		tw = tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, rec := range s.History {
			fmt.Fprintf(tw, "%s:\t%s QUIL\t($%s)\t%d shards\n", rec.Date, rec.Earnings.StringFixed(6), s.usd(rec.Earnings), rec.ShardCount)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	return nil
}

func renderStage(w io.Writer, title string, stats metrics.StageStats, t metrics.StageThresholds) error {
	fmt.Fprintf(w, "\n%s:\n", title)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total Proofs:\t%d\n", stats.Total)
	fmt.Fprintf(tw, "Average Time:\t%.2fs\n", stats.AvgTime)
	fmt.Fprintf(tw, "0-%.0fs:\t%d proofs (%.1f%%)\n", t.Good, stats.Good, stats.GoodPct())
	fmt.Fprintf(tw, "%.0f-%.0fs:\t%d proofs (%.1f%%)\n", t.Good, t.Warning, stats.Warning, stats.WarningPct())
	fmt.Fprintf(tw, ">%.0fs:\t%d proofs (%.1f%%)\n", t.Warning, stats.Critical, stats.CriticalPct())
	return tw.Flush()
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}
