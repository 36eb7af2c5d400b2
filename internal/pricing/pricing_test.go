package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ids") != "wrapped-quil" {
			t.Fatalf("unexpected ids param: %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"wrapped-quil":{"usd":0.0456}}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())

	rate, err := c.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch should succeed: %v", err)
	}
	if rate.String() != "0.0456" {
		t.Fatalf("expected rate 0.0456, got %s", rate)
	}
}

func TestFetchServesFromCacheWithinTTL(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_, _ = w.Write([]byte(`{"wrapped-quil":{"usd":0.05}}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, CacheTTL: time.Hour, Timeout: time.Second}, zerolog.Nop())

	for i := 0; i < 3; i++ {
		if _, err := c.Fetch(context.Background()); err != nil {
			t.Fatalf("fetch %d failed: %v", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call within TTL, got %d", calls)
	}
}

func TestFetchFailureFallsBackToCached(t *testing.T) {
	healthy := true
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !healthy {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"wrapped-quil":{"usd":0.07}}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, CacheTTL: time.Nanosecond, Timeout: time.Second}, zerolog.Nop())

	if _, err := c.Fetch(context.Background()); err != nil {
		t.Fatalf("priming fetch failed: %v", err)
	}

	healthy = false
	time.Sleep(time.Millisecond)

	rate, err := c.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected an error from the failing endpoint")
	}
	if rate.String() != "0.07" {
		t.Fatalf("expected cached rate 0.07 on failure, got %s", rate)
	}
}

func TestFetchFailureWithEmptyCacheIsZero(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())

	rate, err := c.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected an error")
	}
	if !rate.IsZero() {
		t.Fatalf("expected zero rate with empty cache, got %s", rate)
	}
}

func TestFetchMissingCoinField(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	if _, err := c.Fetch(context.Background()); err == nil {
		t.Fatal("missing coin field should error")
	}
}
