package telemetry

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/quarrylabs/quarry/config"
)

func TestTelemetry_Counters(t *testing.T) {
	tel := NewTelemetry(config.TelemetryConfig{Enabled: true})
	if tel == nil {
		t.Fatalf("expected telemetry instance when enabled")
	}

	tel.IncSearch()
	tel.IncSearch()
	tel.IncSearchError()
	tel.IncResultKept()

	if got := testutil.ToFloat64(tel.searches); got != 2 {
		t.Fatalf("expected 2 searches, got %v", got)
	}
	if got := testutil.ToFloat64(tel.searchErrors); got != 1 {
		t.Fatalf("expected 1 search error, got %v", got)
	}
	if got := testutil.ToFloat64(tel.resultsKept); got != 1 {
		t.Fatalf("expected 1 kept result, got %v", got)
	}
	if got := testutil.ToFloat64(tel.fetches); got != 0 {
		t.Fatalf("expected no fetches recorded, got %v", got)
	}
}

func TestTelemetry_DisabledIsNil(t *testing.T) {
	if tel := NewTelemetry(config.TelemetryConfig{Enabled: false}); tel != nil {
		t.Fatalf("expected nil telemetry when disabled")
	}
}

func TestTelemetry_NilReceiverIsSafe(t *testing.T) {
	var tel *Telemetry
	tel.IncRound()
	tel.IncSearch()
	tel.IncFetchError()
	tel.IncLLMCall()
	if tel.Registry() != nil {
		t.Fatalf("nil telemetry must expose a nil registry")
	}
	if err := tel.Shutdown(context.Background()); err != nil {
		t.Fatalf("nil shutdown must be a no-op: %v", err)
	}
}
