package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wolfcubecho/quil-monitor/internal/metrics"
	"github.com/wolfcubecho/quil-monitor/internal/nodeinfo"
)

func sampleSummary(price decimal.Decimal) Summary {
	hist := metrics.NewHistory()
	hist.Upsert(metrics.DailyRecord{Date: "2026-08-22", Earnings: decimal.RequireFromString("1.2")})

	today := metrics.DailyRecord{
		Date:        "2026-08-23",
		Balance:     decimal.RequireFromString("100.5"),
		Earnings:    decimal.RequireFromString("1.5"),
		ShardCount:  3,
		DurationSum: 125,
		Buckets:     metrics.Buckets{Fast: 1, Medium: 1, Slow: 1},
	}
	hist.Upsert(today)

	perf := metrics.Performance{
		Creation:   metrics.ComputeStageStats([]float64{10, 45, 70}, metrics.CreationThresholds),
		Submission: metrics.ComputeStageStats([]float64{30, 65}, metrics.SubmissionThresholds),
		CPU:        metrics.ComputeStageStats([]float64{18}, metrics.CPUThresholds),
		Landing:    metrics.LandingRate{Transactions: 2, Frames: 3},
	}

	now := time.Date(2026, 8, 23, 18, 0, 0, 0, time.UTC)
	return Build("Node-1", now, price, today, metrics.DefaultThresholds, perf, nil, hist)
}

func TestRenderTerminalZeroPrice(t *testing.T) {
	s := sampleSummary(decimal.Zero)

	var buf bytes.Buffer
	if err := RenderTerminal(&buf, s); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "$0.0000") {
		t.Fatalf("zero price should render as $0.0000:\n%s", out)
	}
	if !strings.Contains(out, "($0.00)") {
		t.Fatalf("USD values should degrade to $0.00, not error:\n%s", out)
	}
	if !strings.Contains(out, "Total Shards:") || !strings.Contains(out, "3") {
		t.Fatalf("shard total missing:\n%s", out)
	}
}

func TestRenderTerminalSections(t *testing.T) {
	s := sampleSummary(decimal.RequireFromString("0.05"))

	var buf bytes.Buffer
	if err := RenderTerminal(&buf, s); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"QUIL Node Statistics: Node-1",
		"Fast (<30s):",
		"Medium (30-60s):",
		"Slow (>60s):",
		"Current Performance:",
		"Landing Rate: 66.67% (2/3 frames)",
		"Creation Stage (Network Latency):",
		"Submission Stage (Total Time):",
		"CPU Processing Time:",
		"0-17s:",
		">70s:",
		"History (last 2 days):",
		"2026-08-22",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	// node binary not configured: no node section
	if strings.Contains(out, "Node Information:") {
		t.Fatalf("node section should be absent without node info:\n%s", out)
	}
}

func TestRenderTerminalNodeInformation(t *testing.T) {
	s := sampleSummary(decimal.Zero)
	s.Node = &nodeinfo.Info{Ring: 2, ActiveWorkers: 512, Seniority: 18}

	var buf bytes.Buffer
	if err := RenderTerminal(&buf, s); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Node Information:", "Ring:", "Active Workers:", "Seniority:", "512"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderTelegramContent(t *testing.T) {
	s := sampleSummary(decimal.RequireFromString("0.05"))
	msg := RenderTelegram(s)

	for _, want := range []string{
		"[Node-1] QUIL Daily Report",
		"Date: 2026-08-23",
		"Earnings: 1.500000 QUIL",
		"Fast/Medium/Slow: 1/1/1",
		"Landing Rate: 66.67% (2/3 frames)",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("expected %q in message:\n%s", want, msg)
		}
	}
}

func TestAppendDailyRowWritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daily.csv")
	s := sampleSummary(decimal.RequireFromString("0.05"))

	if err := AppendDailyRow(path, s); err != nil {
		t.Fatalf("first append failed: %v", err)
	}
	if err := AppendDailyRow(path, s); err != nil {
		t.Fatalf("second append failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "date" {
		t.Fatalf("missing header row: %#v", rows[0])
	}
	if rows[1][0] != "2026-08-23" || rows[1][4] != "3" {
		t.Fatalf("unexpected data row: %#v", rows[1])
	}
}

func TestAppendShardRowsCategories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shards.csv")
	s := sampleSummary(decimal.Zero)

	if err := AppendShardRows(path, s); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected header plus 3 category rows, got %d", len(rows))
	}

	categories := []string{rows[1][1], rows[2][1], rows[3][1]}
	want := []string{"fast", "medium", "slow"}
	for i := range want {
		if categories[i] != want[i] {
			t.Fatalf("expected category order %v, got %v", want, categories)
		}
	}
}
