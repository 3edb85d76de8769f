package agent

import (
	"context"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/quarrylabs/quarry/config"
	"github.com/quarrylabs/quarry/internal/telemetry"
	"github.com/quarrylabs/quarry/tools/web_fetch"
	searchmodels "github.com/quarrylabs/quarry/tools/web_search/models"
)

// Searcher is the slice of the web search tool the executor needs.
type Searcher interface {
	Discover(ctx context.Context, query string, k int) ([]searchmodels.Result, error)
}

// Executor runs one search round per call: it picks the next unattempted
// queries from the ledger, fans each one out into trick-enhanced variants,
// searches, fetches the hits, and folds extracted results into the run state.
type Executor struct {
	searcher Searcher
	fetcher  web_fetch.WebFetcher
	metrics  *telemetry.Telemetry
	logger   *log.Logger

	hitsPerQuery     int
	queriesPerRound  int
	enhancedPerQuery int
	pacing           config.PacingConfig
	demoFallback     bool
}

func NewExecutor(searcher Searcher, fetcher web_fetch.WebFetcher, metrics *telemetry.Telemetry, searchCfg config.SearchConfig, pacing config.PacingConfig) *Executor {
	return &Executor{
		searcher:         searcher,
		fetcher:          fetcher,
		metrics:          metrics,
		logger:           log.New(log.Writer(), "[EXECUTOR] ", log.LstdFlags),
		hitsPerQuery:     searchCfg.MaxHitsPerQuery,
		queriesPerRound:  searchCfg.QueriesPerRound,
		enhancedPerQuery: searchCfg.EnhancedPerQuery,
		pacing:           pacing,
		demoFallback:     searchCfg.DemoFallback,
	}
}

// RunRound executes the next batch of unattempted queries and advances the
// iteration counter. Queries are marked attempted whether they succeed or
// not, so a failing query is never retried. Returns an error only when the
// context is done.
func (e *Executor) RunRound(ctx context.Context, st *RunState) error {
	e.metrics.IncRound()
	batch := st.UnattemptedQueries()
	if len(batch) > e.queriesPerRound {
		batch = batch[:e.queriesPerRound]
	}
	e.logger.Printf("round %d: executing %d queries (%d/%d results)",
		st.Iteration+1, len(batch), len(st.Results), st.TargetCount)

	for _, query := range batch {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.runQuery(ctx, st, query); err != nil {
			e.logger.Printf("error searching %q: %v", query, err)
			st.LastError = err.Error()
		}
		st.MarkAttempted(query)
		if len(st.Results) >= st.TargetCount {
			break
		}
	}

	st.Iteration++
	e.logger.Printf("round %d done: %d/%d results", st.Iteration, len(st.Results), st.TargetCount)
	return nil
}

// runQuery searches the query and its trick-enhanced variants and folds the
// hits into the state.
func (e *Executor) runQuery(ctx context.Context, st *RunState, query string) error {
	variants := []string{query}
	tricks := st.Category.SearchTricks()
	if len(tricks) > 3 {
		tricks = tricks[:3]
	}
	for _, trick := range tricks {
		variants = append(variants, query+" "+trick)
	}
	if len(variants) > e.enhancedPerQuery {
		variants = variants[:e.enhancedPerQuery]
	}

	var lastErr error
	for _, variant := range variants {
		e.logger.Printf("  searching: %s", variant)
		hits, err := e.searcher.Discover(ctx, variant, e.hitsPerQuery)
		e.metrics.IncSearch()
		if err != nil {
			e.metrics.IncSearchError()
			lastErr = err
			if e.demoFallback {
				hits = demoHits(st.Category)
			} else {
				continue
			}
		}

		for _, hit := range hits {
			if err := ctx.Err(); err != nil {
				return err
			}
			if !st.Category.IsRelevant(hit.Title, hit.Snippet) {
				e.metrics.IncResultDropped()
				continue
			}
			res := Result{
				ID:          uuid.New().String(),
				Title:       hit.Title,
				URL:         hit.URL,
				Description: hit.Snippet,
				Source:      "web_search",
			}
			e.enrich(ctx, &res, st.Category)
			if st.AddResult(res) {
				e.metrics.IncResultKept()
			} else {
				e.metrics.IncResultDropped()
			}
			e.pause(ctx, e.pacing.FetchDelayMin, e.pacing.FetchDelayMax)
		}
		e.pause(ctx, e.pacing.SearchDelayMin, e.pacing.SearchDelayMax)
	}
	return lastErr
}

// enrich fetches the result's page and merges whatever the extractor finds.
// A failed fetch leaves the search-level fields intact.
func (e *Executor) enrich(ctx context.Context, res *Result, cat Category) {
	if res.URL == "" || e.fetcher == nil {
		return
	}
	e.logger.Printf("    crawling: %s", res.URL)
	page, err := e.fetcher.Exec(ctx, res.URL)
	e.metrics.IncFetch()
	if err != nil || page.Status >= 400 || page.Text == "" {
		e.metrics.IncFetchError()
		return
	}
	frag := Extract(page.Text, res.URL, cat)
	res.merge(frag)
}

// pause sleeps a random duration in [min, max], honoring cancellation. Zero
// bounds disable it.
func (e *Executor) pause(ctx context.Context, min, max time.Duration) {
	if max <= 0 {
		return
	}
	d := min
	if max > min {
		d = min + time.Duration(rand.Int63n(int64(max-min)))
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// demoHits returns canned hits per category so a demo run produces output
// even when the search backend is unreachable.
func demoHits(cat Category) []searchmodels.Result {
	switch cat {
	case CategoryWebsite:
		return []searchmodels.Result{
			{Title: "HubSpot Marketing Hub", URL: "https://hubspot.com", Snippet: "All-in-one marketing platform"},
			{Title: "Moz SEO Tools", URL: "https://moz.com", Snippet: "SEO and marketing analytics"},
			{Title: "SEMrush", URL: "https://semrush.com", Snippet: "Digital marketing toolkit"},
		}
	case CategoryEmail:
		return []searchmodels.Result{
			{Title: "Sarah Johnson, Senior Recruiter at TechCorp", URL: "https://techcorp.com/team/sarah", Snippet: "Contact: sarah.johnson@techcorp.com"},
			{Title: "Mike Davis, Talent Acquisition Manager at StartupIO", URL: "https://startup.io/people/mike", Snippet: "Contact: mike.davis@startup.io"},
		}
	case CategoryJob:
		return []searchmodels.Result{
			{Title: "Senior Software Engineer, TechCorp (Remote)", URL: "https://jobs.techcorp.com/123", Snippet: "TechCorp is hiring a Senior Software Engineer, Remote"},
			{Title: "Data Scientist, DataCorp (New York)", URL: "https://careers.datacorp.com/456", Snippet: "DataCorp careers: Data Scientist position in New York"},
		}
	}
	return nil
}
