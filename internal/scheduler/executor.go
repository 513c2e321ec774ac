package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/rendis/runcase/internal/actions"
	"github.com/rendis/runcase/internal/reporter"
	"github.com/rendis/runcase/internal/resolver"
	"github.com/rendis/runcase/internal/validator"
	"github.com/rendis/runcase/pkg/model"
)

// Scheduler drives a TestCase's steps to completion (spec §4.5): Sequential
// Mode when no step declares depends_on, DAG Mode otherwise. Both modes
// call the same executeStep procedure (§4.5.1); only the driving loop
// differs. Sequential Mode is a plain for-loop over declared order, not a
// DAG with no edges run through the worker pool.
type Scheduler struct {
	Registry  actions.ActionRegistry
	Reporter  reporter.Reporter
	Validator validator.Validator

	// MaxConcurrency bounds DAG Mode's worker pool. Zero or negative sizes
	// the pool to the widest dependency layer of the test case
	// (validator.Reachability.MaxLayerWidth); ready steps beyond the pool
	// size wait for a free slot.
	MaxConcurrency int
}

// NewScheduler builds a Scheduler with the default StepValidator. A nil
// reporter is replaced with reporter.NoopReporter.
func NewScheduler(reg actions.ActionRegistry, rep reporter.Reporter) *Scheduler {
	if rep == nil {
		rep = reporter.NoopReporter{}
	}
	return &Scheduler{
		Registry:  reg,
		Reporter:  rep,
		Validator: validator.NewStepValidator(),
	}
}

// ExecuteTestCase validates tc, runs it to completion against execCtx, and
// returns the aggregate verdict of spec §4.5 step 7. A Validator failure is
// returned as-is (a configuration error, not a test failure) without
// emitting any Reporter events.
func (s *Scheduler) ExecuteTestCase(ctx context.Context, tc *model.TestCase, execCtx *model.ExecutionContext) (bool, error) {
	if s.Validator == nil {
		s.Validator = validator.NewStepValidator()
	}
	if err := s.Validator.Validate(tc); err != nil {
		return false, err
	}

	s.Reporter.TestStart(execCtx.TestCaseID, execCtx.TestCaseName)

	if hasDependencies(tc) {
		s.runDAGMode(ctx, tc, execCtx)
	} else {
		s.runSequentialMode(ctx, tc, execCtx)
	}

	verdict := execCtx.TestSuccess()
	s.Reporter.TestEnd(execCtx.TestCaseID, verdict)
	return verdict, nil
}

// hasDependencies reports whether any step declares depends_on, the mode
// selector of spec §4.5 step 3.
func hasDependencies(tc *model.TestCase) bool {
	for _, step := range tc.Steps {
		if len(step.DependsOn) > 0 {
			return true
		}
	}
	return false
}

// runSequentialMode iterates steps in declared order, running each to
// completion before starting the next regardless of outcome (spec §4.5,
// Sequential Mode).
func (s *Scheduler) runSequentialMode(ctx context.Context, tc *model.TestCase, execCtx *model.ExecutionContext) {
	for _, step := range tc.Steps {
		s.executeStep(ctx, step, execCtx)
	}
}

// executeStep implements the per-step procedure of spec §4.5.1. It is the
// single implementation both modes drive.
func (s *Scheduler) executeStep(ctx context.Context, step model.Step, execCtx *model.ExecutionContext) model.StepStatus {
	step = resolver.DeepCopyStep(step)

	rc := resolver.NewResolveContext(execCtx)
	resolvedParams, err := resolver.ResolveParams(step.Params, rc)
	if err != nil {
		result := &model.ActionResult{Success: false, Output: map[string]any{"error": err.Error()}}
		execCtx.SetResult(step.ID, result)
		s.Reporter.StepEnd(step.ID, false, result.Output)
		return model.StepFailed
	}
	step.Params = resolvedParams

	guard, ok := model.ParseGuard(step.If)
	if !ok {
		// The Validator already rejects unrecognized conditionals; this is
		// defensive only and should be unreachable.
		guard = model.GuardSuccess
	}

	var execute bool
	switch guard {
	case model.GuardAlways:
		execute = true
	case model.GuardFailure:
		execute = !execCtx.TestSuccess()
	default: // GuardSuccess
		execute = execCtx.TestSuccess()
	}

	if !execute {
		result := &model.ActionResult{Success: true, Output: "SKIPPED"}
		execCtx.SetResult(step.ID, result)
		s.Reporter.StepSkipped(step.ID, step.Name, step.Kind, skipReason(guard))
		return model.StepSkipped
	}

	s.Reporter.StepStart(step.ID, step.Name, step.Kind)

	action, err := s.Registry.Get(step.Kind)
	if err != nil {
		result := &model.ActionResult{Success: false, Output: map[string]any{"error": err.Error()}}
		execCtx.SetResult(step.ID, result)
		s.Reporter.StepEnd(step.ID, false, result.Output)
		return model.StepFailed
	}

	result := s.invokeAction(ctx, action, step)
	execCtx.SetResult(step.ID, result)
	s.Reporter.StepEnd(step.ID, result.Success, result.Output)

	if result.Success {
		return model.StepFinished
	}
	return model.StepFailed
}

// invokeAction calls the action and normalizes any raised error or panic
// into a failed ActionResult carrying {error, stack} (spec §4.3). For a
// panic, stack is the goroutine trace at the point of recovery; a returned
// error carries no trace of its own, so its stack is empty.
func (s *Scheduler) invokeAction(ctx context.Context, action actions.Action, step model.Step) *model.ActionResult {
	var stack string
	result, err := func() (res *model.ActionResult, raised error) {
		defer func() {
			if r := recover(); r != nil {
				stack = string(debug.Stack())
				raised = fmt.Errorf("panic: %v", r)
			}
		}()
		return action.Execute(ctx, step)
	}()

	if err != nil {
		return &model.ActionResult{Success: false, Output: map[string]any{"error": err.Error(), "stack": stack}}
	}
	if result == nil {
		return &model.ActionResult{Success: false, Output: map[string]any{"error": "action returned a nil result"}}
	}
	return result
}

func skipReason(guard model.Guard) string {
	switch guard {
	case model.GuardFailure:
		return "no prior step has failed"
	default:
		return "a prior step failed"
	}
}
