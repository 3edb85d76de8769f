package agent

import (
	"context"
	"log"

	"github.com/google/uuid"
)

// CheckpointSink persists run snapshots. Implemented by the checkpoint
// stores; a nil sink disables persistence.
type CheckpointSink interface {
	Save(ctx context.Context, st *RunState) error
}

// Runner drives a run from goal text to a terminal state: analyze the goal,
// propose queries, then loop rounds until the controller calls it complete,
// failed, or in need of refinement.
type Runner struct {
	planner  *Planner
	executor *Executor
	sink     CheckpointSink
	logger   *log.Logger
}

func NewRunner(planner *Planner, executor *Executor, sink CheckpointSink) *Runner {
	return &Runner{
		planner:  planner,
		executor: executor,
		sink:     sink,
		logger:   log.New(log.Writer(), "[RUNNER] ", log.LstdFlags),
	}
}

// Run executes the full loop for the goal and returns the terminal state.
// targetOverride > 0 skips goal analysis. A run that exhausts its iteration
// budget ends with StatusFailed but a nil error; the error return is for
// cancellation only.
func (r *Runner) Run(ctx context.Context, goal string, maxIterations, targetOverride int) (*RunState, error) {
	st := NewRunState(uuid.New().String(), goal, maxIterations)
	r.logger.Printf("run %s: starting for goal %q (category %s)", st.RunID, goal, st.Category)

	if targetOverride > 0 {
		st.TargetCount = targetOverride
	} else {
		st.TargetCount = r.planner.Analyze(ctx, goal)
	}
	st.Status = StatusInProgress
	st.AddQueries(r.planner.ProposeQueries(ctx, st)...)
	r.logger.Printf("run %s: target %d, %d initial queries", st.RunID, st.TargetCount, len(st.Queries))
	r.checkpoint(ctx, st)

	for {
		if err := ctx.Err(); err != nil {
			st.Status = StatusFailed
			st.LastError = err.Error()
			r.checkpoint(context.WithoutCancel(ctx), st)
			return st, err
		}

		if err := r.executor.RunRound(ctx, st); err != nil {
			st.Status = StatusFailed
			st.LastError = err.Error()
			r.checkpoint(context.WithoutCancel(ctx), st)
			return st, err
		}
		r.checkpoint(ctx, st)

		switch Decide(st) {
		case DecisionComplete:
			st.Truncate(st.TargetCount)
			st.Status = StatusCompleted
			r.checkpoint(ctx, st)
			r.logger.Printf("run %s: completed with %d results in %d iterations", st.RunID, len(st.Results), st.Iteration)
			return st, nil
		case DecisionFail:
			st.Status = StatusFailed
			r.checkpoint(ctx, st)
			r.logger.Printf("run %s: failed after %d iterations with %d/%d results", st.RunID, st.Iteration, len(st.Results), st.TargetCount)
			return st, nil
		case DecisionRefine:
			added := st.AddQueries(r.planner.Refine(ctx, st)...)
			r.logger.Printf("run %s: refined strategy, %d new queries", st.RunID, added)
		case DecisionContinue:
		}
	}
}

// checkpoint saves a snapshot, logging failures. Persistence problems never
// abort a run.
func (r *Runner) checkpoint(ctx context.Context, st *RunState) {
	if r.sink == nil {
		return
	}
	if err := r.sink.Save(ctx, st); err != nil {
		r.logger.Printf("run %s: checkpoint save failed: %v", st.RunID, err)
	}
}
