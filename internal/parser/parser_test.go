package parser

import (
	"testing"
	"time"
)

func fixedNow() time.Time {
	return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)
}

func TestParseShardLines(t *testing.T) {
	p := New(fixedNow)

	lines := []string{
		`2026-08-23T10:15:04+0000 node[123]: {"level":"info","msg":"creating data shard ring proof","frame_number":51234,"frame_age":12.52}`,
		`2026-08-23T10:16:11+0000 node[123]: {"level":"info","msg":"submitting data proof for data shard ring proof","frame_number":51235,"frame_age":45.0}`,
		`2026-08-23T10:16:12+0000 node[123]: peers connected: 14`,
		`garbage that matches nothing`,
	}

	ev := p.Parse(lines)
	if len(ev.Shards) != 2 {
		t.Fatalf("expected 2 shard events, got %d", len(ev.Shards))
	}
	if len(ev.Balances) != 0 {
		t.Fatalf("expected no balance events, got %d", len(ev.Balances))
	}

	first := ev.Shards[0]
	if first.Frame != 51234 {
		t.Fatalf("expected frame 51234, got %d", first.Frame)
	}
	if first.Stage != StageCreation {
		t.Fatalf("expected creation stage, got %q", first.Stage)
	}
	if first.Duration != 12.52 {
		t.Fatalf("expected duration 12.52, got %v", first.Duration)
	}
	if first.Timestamp.Hour() != 10 || first.Timestamp.Minute() != 15 {
		t.Fatalf("timestamp not taken from line prefix: %v", first.Timestamp)
	}

	second := ev.Shards[1]
	if second.Stage != StageSubmission {
		t.Fatalf("expected submission stage, got %q", second.Stage)
	}
	if second.Frame != 51235 || second.Duration != 45.0 {
		t.Fatalf("unexpected submission event: %+v", second)
	}
}

func TestParseSubmissionLineIsNotACreation(t *testing.T) {
	p := New(fixedNow)

	// mentions the shard ring proof phrase too, must still classify as
	// a submission
	ev := p.Parse([]string{
		`node: {"msg":"submitting data proof for data shard ring proof","frame_number":9,"frame_age":20.0}`,
	})
	if len(ev.Shards) != 1 {
		t.Fatalf("expected 1 event, got %d", len(ev.Shards))
	}
	if ev.Shards[0].Stage != StageSubmission {
		t.Fatalf("expected submission stage, got %q", ev.Shards[0].Stage)
	}
}

func TestParseBalanceLine(t *testing.T) {
	p := New(fixedNow)

	ev := p.Parse([]string{
		`2026-08-23T11:00:00+0000 node[123]: Owned balance: 104.337812 QUIL`,
	})
	if len(ev.Balances) != 1 {
		t.Fatalf("expected 1 balance event, got %d", len(ev.Balances))
	}
	if ev.Balances[0].Balance.String() != "104.337812" {
		t.Fatalf("unexpected balance: %s", ev.Balances[0].Balance)
	}
}

func TestParseExactlyOneEventPerMatchingLine(t *testing.T) {
	p := New(fixedNow)

	matching := `node: {"msg":"creating data shard ring proof","frame_number":1,"frame_age":5.0}`
	ev := p.Parse([]string{matching, matching, matching})
	if len(ev.Shards) != 3 {
		t.Fatalf("expected one event per line, got %d for 3 lines", len(ev.Shards))
	}
}

func TestParseSkipsMalformedFields(t *testing.T) {
	p := New(fixedNow)

	// matches the shard pattern shape but the frame number overflows uint64
	ev := p.Parse([]string{
		`node: {"msg":"creating data shard ring proof","frame_number":99999999999999999999999999,"frame_age":5.0}`,
	})
	if len(ev.Shards) != 0 {
		t.Fatalf("malformed numeric field should drop the line, got %d events", len(ev.Shards))
	}
}

func TestParseMissingTimestampUsesClock(t *testing.T) {
	p := New(fixedNow)

	ev := p.Parse([]string{
		`node: {"msg":"creating data shard ring proof","frame_number":7,"frame_age":3.3}`,
	})
	if len(ev.Shards) != 1 {
		t.Fatalf("expected 1 event, got %d", len(ev.Shards))
	}
	if !ev.Shards[0].Timestamp.Equal(fixedNow()) {
		t.Fatalf("expected fallback clock time, got %v", ev.Shards[0].Timestamp)
	}
}
