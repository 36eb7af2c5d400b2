package metrics

import (
	"time"

	"github.com/wolfcubecho/quil-monitor/internal/parser"
)

// StageThresholds split one pipeline stage's durations into
// good/warning/critical bands, in seconds.
type StageThresholds struct {
	Good    float64
	Warning float64
}

// Per-stage defaults. Creation measures network latency, submission the
// total round trip, CPU the gap between the two.
var (
	CreationThresholds   = StageThresholds{Good: 17, Warning: 50}
	SubmissionThresholds = StageThresholds{Good: 28, Warning: 70}
	CPUThresholds        = StageThresholds{Good: 20, Warning: 30}
)

// StageStats summarises one stage's proof durations.
type StageStats struct {
	Total    int
	Good     int
	Warning  int
	Critical int
	AvgTime  float64
}

// GoodPct is the share of proofs in the good band.
func (s StageStats) GoodPct() float64 { return stagePct(s.Good, s.Total) }

// WarningPct is the share of proofs in the warning band.
func (s StageStats) WarningPct() float64 { return stagePct(s.Warning, s.Total) }

// CriticalPct is the share of proofs in the critical band.
func (s StageStats) CriticalPct() float64 { return stagePct(s.Critical, s.Total) }

func stagePct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// ComputeStageStats bands a list of durations against the thresholds.
func ComputeStageStats(times []float64, t StageThresholds) StageStats {
	stats := StageStats{Total: len(times)}
	if stats.Total == 0 {
		return stats
	}

	sum := 0.0
	for _, v := range times {
		sum += v
		switch {
		case v <= t.Good:
			stats.Good++
		case v <= t.Warning:
			stats.Warning++
		default:
			stats.Critical++
		}
	}
	stats.AvgTime = sum / float64(stats.Total)
	return stats
}

// LandingRate tracks how many created frames made it to submission.
type LandingRate struct {
	Transactions int
	Frames       int
}

// Pct is the landing rate as a percentage of created frames.
func (l LandingRate) Pct() float64 { return stagePct(l.Transactions, l.Frames) }

// Performance holds the per-stage view of one day's proof pipeline. It
// is recomputed on every run and never persisted.
type Performance struct {
	Creation   StageStats
	Submission StageStats
	CPU        StageStats
	Landing    LandingRate
}

// BuildPerformance derives stage statistics for day from the parsed
// shard events. The CPU time of a frame is the frame age at its second
// sighting minus the age at its first; frames seen twice count as
// landed transactions.
func BuildPerformance(day time.Time, shards []parser.ShardEvent) Performance {
	date := day.Format(DateLayout)

	var (
		creationTimes   []float64
		submissionTimes []float64
		cpuTimes        []float64
		firstAge        = make(map[uint64]float64)
		landed          = make(map[uint64]struct{})
	)

	for _, sh := range shards {
		if !sh.Timestamp.IsZero() && sh.Timestamp.Format(DateLayout) != date {
			continue
		}

		switch sh.Stage {
		case parser.StageSubmission:
			submissionTimes = append(submissionTimes, sh.Duration)
		default:
			creationTimes = append(creationTimes, sh.Duration)
		}

		if prior, seen := firstAge[sh.Frame]; seen {
			if cpu := sh.Duration - prior; cpu > 0 {
				cpuTimes = append(cpuTimes, cpu)
			}
			landed[sh.Frame] = struct{}{}
		} else {
			firstAge[sh.Frame] = sh.Duration
		}
	}

	return Performance{
		Creation:   ComputeStageStats(creationTimes, CreationThresholds),
		Submission: ComputeStageStats(submissionTimes, SubmissionThresholds),
		CPU:        ComputeStageStats(cpuTimes, CPUThresholds),
		Landing:    LandingRate{Transactions: len(landed), Frames: len(firstAge)},
	}
}
