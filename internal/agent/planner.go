package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/quarrylabs/quarry/internal/telemetry"
	"github.com/quarrylabs/quarry/provider"
)

// DefaultTargetCount is assumed when the planning service cannot tell us how
// many items the goal asks for.
const DefaultTargetCount = 10

// Planner turns the goal text into a target count and batches of candidate
// queries. It wraps the external planning service; every path has a
// deterministic fallback so a run never depends on the service being up or
// returning parseable output.
type Planner struct {
	llm     provider.Provider // nil means fallback heuristics only
	metrics *telemetry.Telemetry
	logger  *log.Logger
}

func NewPlanner(llm provider.Provider, metrics *telemetry.Telemetry) *Planner {
	return &Planner{
		llm:     llm,
		metrics: metrics,
		logger:  log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// complete runs one planning request with call accounting.
func (p *Planner) complete(ctx context.Context, prompt string) (string, error) {
	p.metrics.IncLLMCall()
	response, err := p.llm.Complete(ctx, prompt)
	if err != nil {
		p.metrics.IncLLMFailure()
	}
	return response, err
}

// Analyze asks the planning service how many items the goal requires. On any
// failure it falls back to DefaultTargetCount. A single call, no retry.
func (p *Planner) Analyze(ctx context.Context, goal string) int {
	if p.llm == nil {
		return DefaultTargetCount
	}

	prompt := fmt.Sprintf(`Analyze this goal and extract key information:
Goal: %s

Please identify:
1. What type of content is needed (websites, emails, job links, etc.)
2. How many items are required
3. What specific criteria should be met

Respond in JSON format with keys: content_type, quantity, criteria`, goal)

	response, err := p.complete(ctx, prompt)
	if err != nil {
		p.logger.Printf("goal analysis failed, using default target: %v", err)
		return DefaultTargetCount
	}

	var analysis struct {
		ContentType string  `json:"content_type"`
		Quantity    float64 `json:"quantity"`
	}
	jsonStr := extractJSONObject(response)
	if jsonStr == "" || json.Unmarshal([]byte(jsonStr), &analysis) != nil || analysis.Quantity <= 0 {
		p.logger.Printf("unparseable analysis response, using default target")
		return DefaultTargetCount
	}

	p.logger.Printf("goal analyzed: need %d %s", int(analysis.Quantity), analysis.ContentType)
	return int(analysis.Quantity)
}

// ProposeQueries asks for diverse, previously-untried queries for the goal.
// Falls back to category-specific templates when the service fails.
func (p *Planner) ProposeQueries(ctx context.Context, st *RunState) []string {
	if p.llm == nil {
		return st.Category.FallbackQueries(st.Goal)
	}

	prompt := fmt.Sprintf(`Generate 5-10 diverse search queries for this goal: %s

Current results count: %d/%d
Previously tried queries: %s

Create search queries that:
1. Are specific and targeted
2. Use different keywords and approaches
3. Haven't been tried before
4. Are likely to yield the required content type

Return as a JSON list of strings.`, st.Goal, len(st.Results), st.TargetCount, strings.Join(st.Queries, "; "))

	queries, err := p.queryList(ctx, prompt)
	if err != nil {
		p.logger.Printf("query proposal failed, using %s templates: %v", st.Category, err)
		return st.Category.FallbackQueries(st.Goal)
	}
	return queries
}

// Refine asks for new strategies conditioned on what has already been tried.
// Used when the ledger runs dry before the target is met. Falls back to
// per-term templated queries.
func (p *Planner) Refine(ctx context.Context, st *RunState) []string {
	if p.llm == nil {
		return refineFallback(st.Goal)
	}

	attempted := make([]string, 0, len(st.Attempted))
	for _, q := range st.Queries {
		if st.Attempted[q] {
			attempted = append(attempted, q)
		}
	}

	prompt := fmt.Sprintf(`Based on the current progress, suggest new search strategies:

Goal: %s
Target: %d items
Current results: %d items
Tried queries: %s

What new approaches, keywords, or sources should we try?
Return 5 new search queries as a JSON list.`, st.Goal, st.TargetCount, len(st.Results), strings.Join(attempted, "; "))

	queries, err := p.queryList(ctx, prompt)
	if err != nil {
		p.logger.Printf("refinement failed, using term templates: %v", err)
		return refineFallback(st.Goal)
	}
	return queries
}

func refineFallback(goal string) []string {
	var out []string
	for _, term := range strings.Fields(goal) {
		out = append(out, fmt.Sprintf("best %s resources 2024", strings.ToLower(term)))
	}
	return out
}

// queryList runs the prompt and parses a JSON string array out of the
// response.
func (p *Planner) queryList(ctx context.Context, prompt string) ([]string, error) {
	response, err := p.complete(ctx, prompt)
	if err != nil {
		return nil, err
	}
	jsonStr := extractJSONArray(response)
	if jsonStr == "" {
		return nil, fmt.Errorf("no JSON array found in response")
	}
	var queries []string
	if err := json.Unmarshal([]byte(jsonStr), &queries); err != nil {
		return nil, fmt.Errorf("failed to parse query list: %w", err)
	}
	if len(queries) == 0 {
		return nil, fmt.Errorf("empty query list")
	}
	return queries, nil
}

// extractJSONObject pulls the first balanced {...} block out of an LLM
// response, tolerating prose around it.
func extractJSONObject(response string) string {
	return extractBalanced(response, '{', '}')
}

// extractJSONArray pulls the first balanced [...] block out of an LLM
// response.
func extractJSONArray(response string) string {
	return extractBalanced(response, '[', ']')
}

func extractBalanced(s string, open, close rune) string {
	start := -1
	depth := 0
	for i, ch := range s {
		if ch == open {
			if depth == 0 {
				start = i
			}
			depth++
		} else if ch == close {
			if depth > 0 {
				depth--
			}
			if depth == 0 && start != -1 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
