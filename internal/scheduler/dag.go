package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/rendis/runcase/internal/validator"
	"github.com/rendis/runcase/pkg/model"
)

// runDAGMode drives a TestCase whose steps declare depends_on (spec §4.5,
// DAG Mode). It repeatedly computes the ready set — PENDING steps whose
// dependencies are all terminal — dispatches each newly-ready step
// concurrently through the worker pool, and blocks on a completion channel
// whenever nothing can be readied without an in-flight step finishing
// first. This replaces the teacher's static computeLevels pass (a one-shot
// topological sort) with a live readiness loop, since here failures must be
// observed mid-run to trigger dependency short-circuiting (spec §4.5).
func (s *Scheduler) runDAGMode(ctx context.Context, tc *model.TestCase, execCtx *model.ExecutionContext) {
	var stateMu sync.Mutex
	state := make(map[string]model.StepStatus, len(tc.Steps))
	for _, step := range tc.Steps {
		state[step.ID] = model.StepPending
	}

	getState := func(id string) model.StepStatus {
		stateMu.Lock()
		defer stateMu.Unlock()
		return state[id]
	}
	setState := func(id string, st model.StepStatus) {
		stateMu.Lock()
		state[id] = st
		stateMu.Unlock()
	}

	// With no explicit MaxConcurrency, size the pool off the widest
	// dependency layer rather than the total step count. Steps from
	// different layers can be ready at the same time (a slow step of one
	// layer still running while the next layer becomes ready), so more
	// steps than this can be ready at once; those wait in Submit for a
	// free slot.
	poolSize := s.MaxConcurrency
	if poolSize <= 0 {
		poolSize = validator.AnalyzeReachability(tc).MaxLayerWidth()
	}
	if poolSize <= 0 {
		poolSize = 1
	}
	pool := NewWorkerPool(poolSize)
	defer pool.Shutdown()

	completions := make(chan string, len(tc.Steps))
	running := 0

	for {
		ready := make([]model.Step, 0)
		for _, step := range tc.Steps {
			if getState(step.ID) != model.StepPending {
				continue
			}
			if dependenciesTerminal(step, getState) {
				ready = append(ready, step)
			}
		}

		if len(ready) == 0 {
			if running == 0 {
				return
			}
			<-completions
			running--
			continue
		}

		for _, step := range ready {
			setState(step.ID, model.StepRunning)

			if depID, failed := failedDependency(step, getState, execCtx); failed {
				result := &model.ActionResult{
					Success: false,
					Output:  map[string]any{"error": fmt.Sprintf("Dependency '%s' failed", depID)},
				}
				execCtx.SetResult(step.ID, result)
				setState(step.ID, model.StepFailed)
				s.Reporter.StepEnd(step.ID, false, result.Output)
				continue
			}

			running++
			step := step
			err := pool.Submit(ctx, func(ctx context.Context) error {
				st := s.executeStep(ctx, step, execCtx)
				setState(step.ID, st)
				completions <- step.ID
				return nil
			})
			if err != nil {
				running--
				result := &model.ActionResult{Success: false, Output: map[string]any{"error": err.Error()}}
				execCtx.SetResult(step.ID, result)
				setState(step.ID, model.StepFailed)
				s.Reporter.StepEnd(step.ID, false, result.Output)
			}
		}
	}
}

// dependenciesTerminal reports whether every dependency of step has reached
// a terminal status.
func dependenciesTerminal(step model.Step, getState func(string) model.StepStatus) bool {
	for _, dep := range step.DependsOn {
		if !getState(dep).Terminal() {
			return false
		}
	}
	return true
}

// failedDependency reports the first dependency of step that is FAILED or
// whose recorded result was unsuccessful, implementing the dependency
// short-circuit of spec §4.5: a step is never dispatched once a declared
// dependency has failed.
func failedDependency(step model.Step, getState func(string) model.StepStatus, execCtx *model.ExecutionContext) (string, bool) {
	for _, dep := range step.DependsOn {
		if getState(dep) == model.StepFailed {
			return dep, true
		}
		if result, ok := execCtx.Result(dep); ok && !result.Success {
			return dep, true
		}
	}
	return "", false
}
