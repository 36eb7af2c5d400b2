package journal

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
)

func TestLinesSplitsOutput(t *testing.T) {
	var gotArgs []string
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		if name != "journalctl" {
			t.Fatalf("expected journalctl, got %s", name)
		}
		gotArgs = args
		return []byte("line one\nline two\n\nline three\n"), nil
	}

	j := NewWithRunner(Options{Unit: "ceremonyclient.service", Since: "today"}, run, zerolog.Nop())

	lines, err := j.Lines(context.Background())
	if err != nil {
		t.Fatalf("lines failed: %v", err)
	}
	if len(lines) != 3 {
		t.Fatalf("expected 3 non-empty lines, got %d: %#v", len(lines), lines)
	}

	joined := ""
	for _, a := range gotArgs {
		joined += a + " "
	}
	for _, want := range []string{"-u", "ceremonyclient.service", "--since", "today"} {
		found := false
		for _, a := range gotArgs {
			if a == want {
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("expected arg %q in %q", want, joined)
		}
	}
}

func TestLinesCommandFailure(t *testing.T) {
	run := func(ctx context.Context, name string, args ...string) ([]byte, error) {
		return nil, errors.New("journald down")
	}

	j := NewWithRunner(Options{Unit: "ceremonyclient.service"}, run, zerolog.Nop())
	if _, err := j.Lines(context.Background()); err == nil {
		t.Fatal("runner failure must propagate")
	}
}

func TestLinesMissingUnit(t *testing.T) {
	j := NewWithRunner(Options{}, nil, zerolog.Nop())
	if _, err := j.Lines(context.Background()); err == nil {
		t.Fatal("missing unit must error")
	}
}
