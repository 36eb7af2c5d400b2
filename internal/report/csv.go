package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

var dailyHeader = []string{"date", "balance_quil", "earnings_quil", "earnings_usd", "shard_count", "avg_duration_s"}

var shardHeader = []string{"date", "category", "count", "share_pct"}

// AppendDailyRow appends one row for the day to the daily CSV, creating the
// file with a header on first use.
func AppendDailyRow(path string, s Summary) error {
	return appendRows(path, dailyHeader, [][]string{{
		s.Today.Date,
		s.Today.Balance.StringFixed(6),
		s.Today.Earnings.StringFixed(6),
		s.usd(s.Today.Earnings),
		strconv.Itoa(s.Today.ShardCount),
		fmt.Sprintf("%.2f", s.Today.AvgDuration()),
	}})
}

// AppendShardRows appends one row per processing-time category.
func AppendShardRows(path string, s Summary) error {
	b := s.Today.Buckets
	total := s.Today.ShardCount
	rows := [][]string{
		shardRow(s.Today.Date, "fast", b.Fast, total),
		shardRow(s.Today.Date, "medium", b.Medium, total),
		shardRow(s.Today.Date, "slow", b.Slow, total),
	}
	return appendRows(path, shardHeader, rows)
}

func shardRow(date, category string, count, total int) []string {
	return []string{date, category, strconv.Itoa(count), fmt.Sprintf("%.1f", pct(count, total))}
}

func appendRows(path string, header []string, rows [][]string) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	info, statErr := os.Stat(path)
	writeHeader := statErr != nil || info.Size() == 0

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open csv %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if writeHeader {
		if err := writer.Write(header); err != nil {
			return err
		}
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
