// Package telemetry exposes run counters over a Prometheus registry.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quarrylabs/quarry/config"
)

// Telemetry counts the externally visible work of a run. All methods are
// safe on a nil receiver, so callers never have to guard metric calls.
type Telemetry struct {
	registry *prometheus.Registry
	server   *http.Server
	logger   *log.Logger

	rounds         prometheus.Counter
	searches       prometheus.Counter
	searchErrors   prometheus.Counter
	fetches        prometheus.Counter
	fetchErrors    prometheus.Counter
	resultsKept    prometheus.Counter
	resultsDropped prometheus.Counter
	llmCalls       prometheus.Counter
	llmFailures    prometheus.Counter
}

// NewTelemetry builds the counter set and, when enabled with a port, starts
// a /metrics endpoint. Returns nil when disabled; the nil receiver is usable.
func NewTelemetry(cfg config.TelemetryConfig) *Telemetry {
	if !cfg.Enabled {
		return nil
	}

	registry := prometheus.NewRegistry()
	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{Namespace: "quarry", Name: name, Help: help})
		registry.MustRegister(c)
		return c
	}

	t := &Telemetry{
		registry:       registry,
		logger:         log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		rounds:         counter("rounds_total", "Search rounds executed."),
		searches:       counter("searches_total", "Search queries sent to the web search provider."),
		searchErrors:   counter("search_errors_total", "Search queries that returned an error."),
		fetches:        counter("fetches_total", "Page fetch attempts."),
		fetchErrors:    counter("fetch_errors_total", "Page fetches that failed or returned no text."),
		resultsKept:    counter("results_kept_total", "Results accepted into the run state."),
		resultsDropped: counter("results_dropped_total", "Results dropped as irrelevant or duplicate."),
		llmCalls:       counter("llm_calls_total", "Planning service requests."),
		llmFailures:    counter("llm_failures_total", "Planning service requests that failed."),
	}

	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
		t.server = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.MetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				t.logger.Printf("metrics server error: %v", err)
			}
		}()
	}

	return t
}

func (t *Telemetry) IncRound() { t.inc(func() prometheus.Counter { return t.rounds }) }

func (t *Telemetry) IncSearch() { t.inc(func() prometheus.Counter { return t.searches }) }

func (t *Telemetry) IncSearchError() { t.inc(func() prometheus.Counter { return t.searchErrors }) }

func (t *Telemetry) IncFetch() { t.inc(func() prometheus.Counter { return t.fetches }) }

func (t *Telemetry) IncFetchError() { t.inc(func() prometheus.Counter { return t.fetchErrors }) }

func (t *Telemetry) IncResultKept() { t.inc(func() prometheus.Counter { return t.resultsKept }) }

func (t *Telemetry) IncResultDropped() { t.inc(func() prometheus.Counter { return t.resultsDropped }) }

func (t *Telemetry) IncLLMCall() { t.inc(func() prometheus.Counter { return t.llmCalls }) }

func (t *Telemetry) IncLLMFailure() { t.inc(func() prometheus.Counter { return t.llmFailures }) }

func (t *Telemetry) inc(pick func() prometheus.Counter) {
	if t == nil {
		return
	}
	if c := pick(); c != nil {
		c.Inc()
	}
}

// Registry exposes the underlying registry for tests and custom collectors.
func (t *Telemetry) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.registry
}

// Shutdown stops the metrics endpoint if one was started.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t == nil || t.server == nil {
		return nil
	}
	return t.server.Shutdown(ctx)
}
