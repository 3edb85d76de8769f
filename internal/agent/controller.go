package agent

// Decision is the controller's verdict after a round.
type Decision string

const (
	// DecisionComplete means the target count is met.
	DecisionComplete Decision = "complete"
	// DecisionFail means the iteration budget is exhausted.
	DecisionFail Decision = "fail"
	// DecisionRefine means the query ledger ran dry before the target.
	DecisionRefine Decision = "refine"
	// DecisionContinue means another round should run as-is.
	DecisionContinue Decision = "continue"
)

// Decide inspects the state and picks the next step. Pure function of the
// state, safe to call repeatedly. Target takes precedence over the iteration
// budget, so a run that hits both completes.
func Decide(st *RunState) Decision {
	if len(st.Results) >= st.TargetCount {
		return DecisionComplete
	}
	if st.Iteration >= st.MaxIterations {
		return DecisionFail
	}
	if len(st.UnattemptedQueries()) == 0 {
		return DecisionRefine
	}
	return DecisionContinue
}
