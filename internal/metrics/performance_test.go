package metrics

import (
	"testing"
	"time"

	"github.com/wolfcubecho/quil-monitor/internal/parser"
)

func perfDay() time.Time {
	return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
}

func stamped(hour int) time.Time {
	return time.Date(2026, 8, 23, hour, 0, 0, 0, time.UTC)
}

func TestComputeStageStatsBands(t *testing.T) {
	stats := ComputeStageStats([]float64{10, 17, 30, 60}, CreationThresholds)

	if stats.Total != 4 {
		t.Fatalf("expected total 4, got %d", stats.Total)
	}
	// 17 sits on the good boundary and counts as good
	if stats.Good != 2 || stats.Warning != 1 || stats.Critical != 1 {
		t.Fatalf("unexpected bands: %+v", stats)
	}
	if stats.AvgTime != 29.25 {
		t.Fatalf("expected avg 29.25, got %v", stats.AvgTime)
	}
	if stats.GoodPct() != 50 {
		t.Fatalf("expected 50%% good, got %v", stats.GoodPct())
	}
}

func TestComputeStageStatsEmpty(t *testing.T) {
	stats := ComputeStageStats(nil, CPUThresholds)
	if stats.Total != 0 || stats.AvgTime != 0 || stats.GoodPct() != 0 {
		t.Fatalf("empty input must yield zero stats, got %+v", stats)
	}
}

func TestBuildPerformancePairsFramesForCPUTime(t *testing.T) {
	shards := []parser.ShardEvent{
		{Timestamp: stamped(9), Stage: parser.StageCreation, Frame: 1, Duration: 10},
		{Timestamp: stamped(9), Stage: parser.StageCreation, Frame: 2, Duration: 12},
		{Timestamp: stamped(10), Stage: parser.StageSubmission, Frame: 1, Duration: 35},
	}

	perf := BuildPerformance(perfDay(), shards)

	if perf.Creation.Total != 2 || perf.Submission.Total != 1 {
		t.Fatalf("unexpected stage totals: %+v", perf)
	}
	if perf.CPU.Total != 1 || perf.CPU.AvgTime != 25 {
		t.Fatalf("expected one cpu sample of 25s, got %+v", perf.CPU)
	}
	if perf.Landing.Transactions != 1 || perf.Landing.Frames != 2 {
		t.Fatalf("expected landing 1/2, got %+v", perf.Landing)
	}
	if perf.Landing.Pct() != 50 {
		t.Fatalf("expected 50%% landing rate, got %v", perf.Landing.Pct())
	}
}

func TestBuildPerformanceDropsNonPositiveCPUTime(t *testing.T) {
	// submission age below the creation age would be negative cpu time
	shards := []parser.ShardEvent{
		{Timestamp: stamped(9), Stage: parser.StageCreation, Frame: 7, Duration: 20},
		{Timestamp: stamped(9), Stage: parser.StageSubmission, Frame: 7, Duration: 15},
	}

	perf := BuildPerformance(perfDay(), shards)

	if perf.CPU.Total != 0 {
		t.Fatalf("non-positive cpu time must be dropped, got %+v", perf.CPU)
	}
	// the frame still landed
	if perf.Landing.Transactions != 1 {
		t.Fatalf("expected the frame to count as landed, got %+v", perf.Landing)
	}
}

func TestBuildPerformanceFiltersOtherDays(t *testing.T) {
	shards := []parser.ShardEvent{
		{Timestamp: stamped(9), Stage: parser.StageCreation, Frame: 1, Duration: 10},
		{Timestamp: time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC), Stage: parser.StageCreation, Frame: 2, Duration: 12},
	}

	perf := BuildPerformance(perfDay(), shards)

	if perf.Creation.Total != 1 || perf.Landing.Frames != 1 {
		t.Fatalf("events from other days must be excluded, got %+v", perf)
	}
}

func TestBuildDayIgnoresSubmissionEvents(t *testing.T) {
	agg := NewAggregator(DefaultThresholds)
	hist := NewHistory()

	ev := parser.Events{Shards: []parser.ShardEvent{
		{Timestamp: stamped(9), Stage: parser.StageCreation, Frame: 1, Duration: 10},
		{Timestamp: stamped(10), Stage: parser.StageSubmission, Frame: 1, Duration: 40},
	}}

	rec := agg.BuildDay(hist, perfDay(), ev)
	if rec.ShardCount != 1 {
		t.Fatalf("submissions must not count as shards, got %d", rec.ShardCount)
	}
	if rec.DurationSum != 10 {
		t.Fatalf("expected duration sum 10, got %v", rec.DurationSum)
	}
}
