package agent

import (
	"context"
	"errors"
	"testing"
)

type stubProvider struct {
	response string
	err      error
	prompts  []string
}

func (s *stubProvider) Complete(ctx context.Context, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func TestAnalyze_ParsesQuantityFromProse(t *testing.T) {
	llm := &stubProvider{response: `Sure, here is the analysis:
{"content_type": "websites", "quantity": 15, "criteria": "marketing"}
Hope that helps.`}
	p := NewPlanner(llm, nil)

	if got := p.Analyze(context.Background(), "find marketing websites"); got != 15 {
		t.Fatalf("expected target 15, got %d", got)
	}
	if len(llm.prompts) != 1 {
		t.Fatalf("expected one completion call, got %d", len(llm.prompts))
	}
}

func TestAnalyze_FallsBackOnError(t *testing.T) {
	p := NewPlanner(&stubProvider{err: errors.New("boom")}, nil)
	if got := p.Analyze(context.Background(), "find websites"); got != DefaultTargetCount {
		t.Fatalf("expected default target on error, got %d", got)
	}
}

func TestAnalyze_FallsBackOnGarbage(t *testing.T) {
	for _, response := range []string{"no json here", `{"quantity": 0}`, `{"quantity": -3}`, `{broken`} {
		p := NewPlanner(&stubProvider{response: response}, nil)
		if got := p.Analyze(context.Background(), "find websites"); got != DefaultTargetCount {
			t.Fatalf("response %q: expected default target, got %d", response, got)
		}
	}
}

func TestAnalyze_NilProviderUsesDefault(t *testing.T) {
	p := NewPlanner(nil, nil)
	if got := p.Analyze(context.Background(), "find websites"); got != DefaultTargetCount {
		t.Fatalf("expected default target without provider, got %d", got)
	}
}

func TestProposeQueries_ParsesList(t *testing.T) {
	llm := &stubProvider{response: `Here you go: ["go hosting platforms", "best go tools"]`}
	p := NewPlanner(llm, nil)
	st := NewRunState("run-1", "find go websites", 5)

	got := p.ProposeQueries(context.Background(), st)
	if len(got) != 2 || got[0] != "go hosting platforms" {
		t.Fatalf("unexpected queries: %#v", got)
	}
}

func TestProposeQueries_FallsBackToCategoryTemplates(t *testing.T) {
	p := NewPlanner(&stubProvider{response: "not json at all"}, nil)
	st := NewRunState("run-1", "find recruiter emails", 5)

	got := p.ProposeQueries(context.Background(), st)
	want := CategoryEmail.FallbackQueries(st.Goal)
	if len(got) != len(want) || got[0] != want[0] {
		t.Fatalf("expected email fallbacks %#v, got %#v", want, got)
	}
}

func TestRefine_FallsBackToTermTemplates(t *testing.T) {
	p := NewPlanner(&stubProvider{err: errors.New("down")}, nil)
	st := NewRunState("run-1", "Go conferences", 5)

	got := p.Refine(context.Background(), st)
	if len(got) != 2 {
		t.Fatalf("expected one query per goal term, got %#v", got)
	}
	if got[0] != "best go resources 2024" || got[1] != "best conferences resources 2024" {
		t.Fatalf("unexpected refine fallbacks: %#v", got)
	}
}

func TestRefine_ParsesList(t *testing.T) {
	llm := &stubProvider{response: `["alternative query one", "alternative query two"]`}
	p := NewPlanner(llm, nil)
	st := NewRunState("run-1", "find websites", 5)
	st.AddQueries("tried already")
	st.MarkAttempted("tried already")

	got := p.Refine(context.Background(), st)
	if len(got) != 2 || got[1] != "alternative query two" {
		t.Fatalf("unexpected refined queries: %#v", got)
	}
}

func TestExtractBalanced(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`prose {"a": {"b": 1}} more prose`, `{"a": {"b": 1}}`},
		{`{"a": 1}`, `{"a": 1}`},
		{`no object`, ``},
		{`unbalanced {`, ``},
	}
	for _, c := range cases {
		if got := extractJSONObject(c.in); got != c.want {
			t.Fatalf("extractJSONObject(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := extractJSONArray(`queries: ["a", "b"] done`); got != `["a", "b"]` {
		t.Fatalf("unexpected array extraction: %q", got)
	}
}
