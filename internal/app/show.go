package app

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/wolfcubecho/quil-monitor/internal/metrics"
)

// Show prints the most recent daily records. It prefers the Postgres mirror
// when one is configured and falls back to the JSON state file otherwise.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	records, total, err := a.recentRecords(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "no records found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Date\tBalance (QUIL)\tEarnings (QUIL)\tShards\tAvg (s)\tFast\tMedium\tSlow")

	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%d\t%.2f\t%d\t%d\t%d\n",
			rec.Date,
			rec.Balance.StringFixed(6),
			rec.Earnings.StringFixed(6),
			rec.ShardCount,
			rec.AvgDuration(),
			rec.Buckets.Fast,
			rec.Buckets.Medium,
			rec.Buckets.Slow,
		)
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "\nShowing %d of %d stored days\n", len(records), total)
	return nil
}

func (a *App) recentRecords(ctx context.Context, limit int) ([]metrics.DailyRecord, int64, error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("database unavailable, reading history file")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if store != nil {
		records, listErr := store.ListRecentRecords(ctx, limit)
		if listErr != nil {
			return nil, 0, listErr
		}
		total, countErr := store.CountRecords(ctx)
		if countErr != nil {
			return nil, 0, countErr
		}
		return records, total, nil
	}

	hist, err := a.newStateFile().Load()
	if err != nil {
		return nil, 0, err
	}

	dates := hist.Dates()
	records := make([]metrics.DailyRecord, 0, limit)
	for i := len(dates) - 1; i >= 0 && len(records) < limit; i-- {
		rec, _ := hist.Get(dates[i])
		records = append(records, rec)
	}
	return records, int64(len(dates)), nil
}
