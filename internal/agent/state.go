package agent

import "strings"

// Status is the run's position in the convergence state machine.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status permits no further mutation.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Result is one accepted, deduplicated unit of output. Which fields are
// populated depends on the goal category; zero-valued fields are omitted from
// serialized snapshots.
type Result struct {
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title,omitempty"`
	URL         string   `json:"url,omitempty"`
	Description string   `json:"description,omitempty"`
	Source      string   `json:"source,omitempty"`
	Emails      []string `json:"emails,omitempty"`
	ContactInfo []string `json:"contact_info,omitempty"`
	JobTitle    string   `json:"job_title,omitempty"`
	Company     string   `json:"company,omitempty"`
	Location    string   `json:"location,omitempty"`
	JobURL      string   `json:"job_url,omitempty"`
	Excerpt     string   `json:"excerpt,omitempty"`
}

// RunState is the single mutable aggregate threaded through the loop. It is
// owned by the Runner and passed by exclusive reference to each stage; no
// component retains it across calls.
type RunState struct {
	RunID         string          `json:"run_id"`
	Goal          string          `json:"goal"`
	Category      Category        `json:"category"`
	TargetCount   int             `json:"target_count"`
	Results       []Result        `json:"results"`
	Queries       []string        `json:"queries"`
	Attempted     map[string]bool `json:"attempted"`
	Status        Status          `json:"status"`
	Iteration     int             `json:"iteration"`
	MaxIterations int             `json:"max_iterations"`
	LastError     string          `json:"last_error,omitempty"`
}

// NewRunState initializes the aggregate for one goal invocation.
func NewRunState(runID, goal string, maxIterations int) *RunState {
	return &RunState{
		RunID:         runID,
		Goal:          goal,
		Category:      InferCategory(goal),
		TargetCount:   DefaultTargetCount,
		Attempted:     make(map[string]bool),
		Status:        StatusPending,
		MaxIterations: maxIterations,
	}
}

// AddQueries merges candidate queries into the ledger, suppressing duplicates
// and preserving order of first appearance. Returns how many were new.
func (st *RunState) AddQueries(queries ...string) int {
	added := 0
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" || st.hasQuery(q) {
			continue
		}
		st.Queries = append(st.Queries, q)
		added++
	}
	return added
}

func (st *RunState) hasQuery(q string) bool {
	for _, existing := range st.Queries {
		if existing == q {
			return true
		}
	}
	return false
}

// UnattemptedQueries returns the ledger entries not yet executed, in proposal order.
func (st *RunState) UnattemptedQueries() []string {
	var out []string
	for _, q := range st.Queries {
		if !st.Attempted[q] {
			out = append(out, q)
		}
	}
	return out
}

// MarkAttempted records a query as executed. Queries are marked even when
// their search failed.
func (st *RunState) MarkAttempted(q string) {
	st.Attempted[q] = true
}

// AddResult appends a record unless it collides with an existing one on URL
// or on any email address. First-discovered wins; returns false on collision.
func (st *RunState) AddResult(r Result) bool {
	for _, existing := range st.Results {
		if r.URL != "" && r.URL == existing.URL {
			return false
		}
		if emailOverlap(r.Emails, existing.Emails) {
			return false
		}
	}
	st.Results = append(st.Results, r)
	return true
}

func emailOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// Truncate keeps only the earliest-discovered n results. Applied once, on
// successful finalization.
func (st *RunState) Truncate(n int) {
	if n >= 0 && len(st.Results) > n {
		st.Results = st.Results[:n]
	}
}
