package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/quarrylabs/quarry/config"
	fetchmodels "github.com/quarrylabs/quarry/tools/web_fetch/models"
	searchmodels "github.com/quarrylabs/quarry/tools/web_search/models"
)

type stubSearcher struct {
	hits  []searchmodels.Result
	err   error
	calls []string
}

func (s *stubSearcher) Discover(ctx context.Context, q string, k int) ([]searchmodels.Result, error) {
	s.calls = append(s.calls, q)
	if s.err != nil {
		return nil, s.err
	}
	if len(s.hits) > k {
		return s.hits[:k], nil
	}
	return s.hits, nil
}

type stubFetcher struct {
	pages map[string]fetchmodels.Result
	err   error
}

func (f stubFetcher) Exec(ctx context.Context, url string) (fetchmodels.Result, error) {
	if f.err != nil {
		return fetchmodels.Result{}, f.err
	}
	if page, ok := f.pages[url]; ok {
		return page, nil
	}
	return fetchmodels.Result{URL: url, Status: 599}, nil
}

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		MaxHitsPerQuery:  5,
		QueriesPerRound:  3,
		EnhancedPerQuery: 2,
	}
}

func TestRunRound_CollectsAndMarksAttempted(t *testing.T) {
	searcher := &stubSearcher{hits: []searchmodels.Result{
		{Title: "HubSpot platform", URL: "https://hubspot.com", Snippet: "marketing platform"},
		{Title: "Irrelevant cake recipe", URL: "https://cakes.example.com", Snippet: "chocolate"},
	}}
	ex := NewExecutor(searcher, stubFetcher{}, nil, testSearchConfig(), config.PacingConfig{})

	st := NewRunState("run-1", "find marketing websites", 5)
	st.TargetCount = 10
	st.AddQueries("marketing platforms")

	if err := ex.RunRound(context.Background(), st); err != nil {
		t.Fatalf("unexpected round error: %v", err)
	}
	if st.Iteration != 1 {
		t.Fatalf("expected iteration 1, got %d", st.Iteration)
	}
	if !st.Attempted["marketing platforms"] {
		t.Fatalf("query should be marked attempted")
	}
	if len(st.Results) != 1 || st.Results[0].URL != "https://hubspot.com" {
		t.Fatalf("expected only the relevant hit, got %#v", st.Results)
	}
	if st.Results[0].Source != "web_search" {
		t.Fatalf("expected source web_search, got %q", st.Results[0].Source)
	}
	if st.Results[0].ID == "" {
		t.Fatalf("expected a generated result ID")
	}
}

func TestRunRound_EnhancedVariants(t *testing.T) {
	searcher := &stubSearcher{}
	ex := NewExecutor(searcher, stubFetcher{}, nil, testSearchConfig(), config.PacingConfig{})

	st := NewRunState("run-1", "find marketing websites", 5)
	st.AddQueries("seo platforms")

	if err := ex.RunRound(context.Background(), st); err != nil {
		t.Fatalf("unexpected round error: %v", err)
	}
	if len(searcher.calls) != 2 {
		t.Fatalf("expected base plus one enhanced search, got %#v", searcher.calls)
	}
	if searcher.calls[0] != "seo platforms" {
		t.Fatalf("first variant must be the base query, got %q", searcher.calls[0])
	}
	if !strings.HasPrefix(searcher.calls[1], "seo platforms ") {
		t.Fatalf("enhanced variant must extend the base query, got %q", searcher.calls[1])
	}
}

func TestRunRound_BatchLimit(t *testing.T) {
	searcher := &stubSearcher{}
	ex := NewExecutor(searcher, stubFetcher{}, nil, testSearchConfig(), config.PacingConfig{})

	st := NewRunState("run-1", "summarize jazz history", 5)
	st.AddQueries("q1", "q2", "q3", "q4", "q5")

	if err := ex.RunRound(context.Background(), st); err != nil {
		t.Fatalf("unexpected round error: %v", err)
	}
	if got := len(st.Attempted); got != 3 {
		t.Fatalf("expected 3 queries attempted per round, got %d", got)
	}
	if st.Attempted["q4"] || st.Attempted["q5"] {
		t.Fatalf("queries beyond the batch must stay unattempted")
	}
}

func TestRunRound_SearchErrorRecordsAndContinues(t *testing.T) {
	searcher := &stubSearcher{err: errors.New("network down")}
	ex := NewExecutor(searcher, stubFetcher{}, nil, testSearchConfig(), config.PacingConfig{})

	st := NewRunState("run-1", "find marketing websites", 5)
	st.AddQueries("q1", "q2")

	if err := ex.RunRound(context.Background(), st); err != nil {
		t.Fatalf("search failures must not abort the round: %v", err)
	}
	if !st.Attempted["q1"] || !st.Attempted["q2"] {
		t.Fatalf("failing queries must still be marked attempted")
	}
	if st.LastError == "" || !strings.Contains(st.LastError, "network down") {
		t.Fatalf("expected last error to record the failure, got %q", st.LastError)
	}
	if st.Iteration != 1 {
		t.Fatalf("iteration must advance even on failure, got %d", st.Iteration)
	}
}

func TestRunRound_FetchEnrichesEmails(t *testing.T) {
	searcher := &stubSearcher{hits: []searchmodels.Result{
		{Title: "TechCorp recruiter page", URL: "https://techcorp.com/team", Snippet: "contact our recruiters"},
	}}
	fetcher := stubFetcher{pages: map[string]fetchmodels.Result{
		"https://techcorp.com/team": {
			URL:    "https://techcorp.com/team",
			Text:   "Reach Sarah at sarah.johnson@techcorp.com for roles.",
			Status: 200,
		},
	}}
	ex := NewExecutor(searcher, fetcher, nil, testSearchConfig(), config.PacingConfig{})

	st := NewRunState("run-1", "find recruiter emails", 5)
	st.AddQueries("techcorp recruiters")

	if err := ex.RunRound(context.Background(), st); err != nil {
		t.Fatalf("unexpected round error: %v", err)
	}
	if len(st.Results) != 1 {
		t.Fatalf("expected one result, got %#v", st.Results)
	}
	got := st.Results[0]
	if len(got.Emails) != 1 || got.Emails[0] != "sarah.johnson@techcorp.com" {
		t.Fatalf("expected extracted email, got %#v", got.Emails)
	}
	if got.Title != "TechCorp recruiter page" {
		t.Fatalf("search-level fields must survive enrichment, got %#v", got)
	}
}

func TestRunRound_FetchFailureKeepsBaseResult(t *testing.T) {
	searcher := &stubSearcher{hits: []searchmodels.Result{
		{Title: "Recruiter directory", URL: "https://dead.example.com", Snippet: "hiring contacts"},
	}}
	ex := NewExecutor(searcher, stubFetcher{err: errors.New("timeout")}, nil, testSearchConfig(), config.PacingConfig{})

	st := NewRunState("run-1", "find recruiter emails", 5)
	st.AddQueries("recruiter directory")

	if err := ex.RunRound(context.Background(), st); err != nil {
		t.Fatalf("unexpected round error: %v", err)
	}
	if len(st.Results) != 1 || st.Results[0].Title != "Recruiter directory" {
		t.Fatalf("fetch failure must keep the search-level result, got %#v", st.Results)
	}
}

func TestRunRound_StopsAtTarget(t *testing.T) {
	searcher := &stubSearcher{hits: []searchmodels.Result{
		{Title: "Tool one", URL: "https://one.example.com", Snippet: "a tool"},
		{Title: "Tool two", URL: "https://two.example.com", Snippet: "a tool"},
		{Title: "Tool three", URL: "https://three.example.com", Snippet: "a tool"},
	}}
	ex := NewExecutor(searcher, stubFetcher{}, nil, testSearchConfig(), config.PacingConfig{})

	st := NewRunState("run-1", "find marketing websites", 5)
	st.TargetCount = 2
	st.AddQueries("q1", "q2", "q3")

	if err := ex.RunRound(context.Background(), st); err != nil {
		t.Fatalf("unexpected round error: %v", err)
	}
	if len(st.Results) < st.TargetCount {
		t.Fatalf("expected target to be reached, got %d results", len(st.Results))
	}
	if st.Attempted["q2"] || st.Attempted["q3"] {
		t.Fatalf("round must stop executing queries once the target is met")
	}
}

func TestRunRound_DemoFallback(t *testing.T) {
	cfg := testSearchConfig()
	cfg.DemoFallback = true
	searcher := &stubSearcher{err: errors.New("search unavailable")}
	ex := NewExecutor(searcher, stubFetcher{}, nil, cfg, config.PacingConfig{})

	st := NewRunState("run-1", "find digital marketing websites", 5)
	st.AddQueries("marketing platforms")

	if err := ex.RunRound(context.Background(), st); err != nil {
		t.Fatalf("unexpected round error: %v", err)
	}
	if len(st.Results) == 0 {
		t.Fatalf("expected canned results when demo fallback is enabled")
	}
	for _, r := range st.Results {
		if r.URL == "" {
			t.Fatalf("demo results must carry URLs, got %#v", r)
		}
	}
}

func TestRunRound_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ex := NewExecutor(&stubSearcher{}, stubFetcher{}, nil, testSearchConfig(), config.PacingConfig{})
	st := NewRunState("run-1", "find marketing websites", 5)
	st.AddQueries("q1")

	if err := ex.RunRound(ctx, st); err == nil {
		t.Fatalf("expected context error")
	}
}
