package app

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/wolfcubecho/quil-monitor/internal/metrics"
)

// Export writes the stored daily history as CSV and/or a PNG earnings chart.
// It queries the Postgres mirror when one is configured and reads the JSON
// state file otherwise.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxPoints = a.Config.ResolveMaxPoints(opts.MaxPoints)

	selected, err := a.exportRecords(ctx, opts.From, opts.To)
	if err != nil {
		return err
	}
	if len(selected) == 0 {
		a.Logger.Info().Msg("no records found for export window")
		return nil
	}

	downsampled := downsampleRecords(selected, opts.MaxPoints)
	a.Logger.Info().Int("total", len(selected)).Int("exported", len(downsampled)).Msg("exporting records")

	rate, err := a.newPriceClient().Fetch(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("price fetch failed, exporting with zero rate")
	}

	if opts.CSVPath != "" {
		if err := writeRecordsCSV(opts.CSVPath, downsampled, rate); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeEarningsPNG(opts.PNGPath, downsampled); err != nil {
			return err
		}
	}

	return nil
}

func (a *App) exportRecords(ctx context.Context, from, to string) ([]metrics.DailyRecord, error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("database unavailable, reading history file")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if store != nil {
		return store.ListRecordsBetween(ctx, from, to)
	}

	hist, err := a.newStateFile().Load()
	if err != nil {
		return nil, err
	}
	return selectRange(hist, from, to), nil
}

func selectRange(hist *metrics.History, from, to string) []metrics.DailyRecord {
	dates := hist.Dates()
	out := make([]metrics.DailyRecord, 0, len(dates))
	for _, date := range dates {
		if from != "" && date < from {
			continue
		}
		if to != "" && date >= to {
			continue
		}
		rec, _ := hist.Get(date)
		out = append(out, rec)
	}
	return out
}

func downsampleRecords(records []metrics.DailyRecord, max int) []metrics.DailyRecord {
	if max <= 0 || len(records) <= max {
		return records
	}
	// The even-spacing step below needs at least two slots; with one,
	// keep the most recent day.
	if max == 1 {
		return records[len(records)-1:]
	}

	result := make([]metrics.DailyRecord, 0, max)
	step := float64(len(records)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		idx := int(math.Round(step * float64(i)))
		if idx >= len(records) {
			idx = len(records) - 1
		}
		result = append(result, records[idx])
	}
	return result
}

func writeRecordsCSV(path string, records []metrics.DailyRecord, rate decimal.Decimal) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	header := []string{"date", "balance_quil", "earnings_quil", "earnings_usd", "shard_count", "avg_duration_s", "fast", "medium", "slow"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		row := []string{
			rec.Date,
			rec.Balance.StringFixed(6),
			rec.Earnings.StringFixed(6),
			rec.Earnings.Mul(rate).StringFixed(2),
			strconv.Itoa(rec.ShardCount),
			fmt.Sprintf("%.2f", rec.AvgDuration()),
			strconv.Itoa(rec.Buckets.Fast),
			strconv.Itoa(rec.Buckets.Medium),
			strconv.Itoa(rec.Buckets.Slow),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	return writer.Error()
}

func writeEarningsPNG(path string, records []metrics.DailyRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	x := make([]time.Time, len(records))
	earnings := make([]float64, len(records))
	shards := make([]float64, len(records))

	for i, rec := range records {
		day, err := time.Parse(metrics.DateLayout, rec.Date)
		if err != nil {
			continue
		}
		x[i] = day
		earnings[i] = rec.Earnings.InexactFloat64()
		shards[i] = float64(rec.ShardCount)
	}

	graph := chart.Chart{
		Width:  1280,
		Height: 720,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatter,
		},
		YAxis: chart.YAxis{
			Name: "Earnings (QUIL)",
		},
		YAxisSecondary: chart.YAxis{
			Name: "Shards",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Daily Earnings",
				XValues: x,
				YValues: earnings,
			},
			chart.TimeSeries{
				Name:    "Shards",
				XValues: x,
				YValues: shards,
				YAxis:   chart.YAxisSecondary,
			},
		},
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
