package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/runcase/internal/actions"
	"github.com/rendis/runcase/internal/reporter"
	"github.com/rendis/runcase/pkg/model"
)

func TestDependenciesTerminal(t *testing.T) {
	state := map[string]model.StepStatus{"A": model.StepFinished, "B": model.StepPending}
	get := func(id string) model.StepStatus { return state[id] }

	assert.True(t, dependenciesTerminal(step("C", "nop", "", []string{"A"}, nil), get))
	assert.False(t, dependenciesTerminal(step("C", "nop", "", []string{"B"}, nil), get))
	assert.True(t, dependenciesTerminal(step("C", "nop", "", nil, nil), get))
}

func TestFailedDependency(t *testing.T) {
	execCtx := model.NewExecutionContext("tc", "name")
	execCtx.SetResult("A", &model.ActionResult{Success: false})

	state := map[string]model.StepStatus{"A": model.StepFailed}
	get := func(id string) model.StepStatus { return state[id] }

	depID, failed := failedDependency(step("B", "nop", "", []string{"A"}, nil), get, execCtx)
	assert.True(t, failed)
	assert.Equal(t, "A", depID)

	_, failed = failedDependency(step("B", "nop", "", nil, nil), get, execCtx)
	assert.False(t, failed)
}

// slowAction blocks until release is closed, then increments a concurrency
// counter so a test can assert two steps actually overlapped.
type slowAction struct {
	name    string
	active  *int64
	maxSeen *int64
	release <-chan struct{}
}

func (a slowAction) Name() string { return a.name }

func (a slowAction) Execute(ctx context.Context, _ model.Step) (*model.ActionResult, error) {
	cur := atomic.AddInt64(a.active, 1)
	for {
		seen := atomic.LoadInt64(a.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt64(a.maxSeen, seen, cur) {
			break
		}
	}
	<-a.release
	atomic.AddInt64(a.active, -1)
	return &model.ActionResult{Success: true, Output: map[string]any{}}, nil
}

func TestRunDAGMode_IndependentBranchesRunConcurrently(t *testing.T) {
	var active, maxSeen int64
	release := make(chan struct{})

	reg := actions.NewRegistry()
	require.NoError(t, reg.Register(slowAction{name: "slow", active: &active, maxSeen: &maxSeen, release: release}))
	require.NoError(t, reg.Register(newActionFunc("nop", func(context.Context, model.Step) (*model.ActionResult, error) {
		return &model.ActionResult{Success: true, Output: map[string]any{}}, nil
	})))

	tc := &model.TestCase{Name: "concurrent", Steps: []model.Step{
		step("A", "nop", "", nil, nil),
		step("B", "slow", "", []string{"A"}, nil),
		step("C", "slow", "", []string{"A"}, nil),
		step("D", "nop", "", []string{"B", "C"}, nil),
	}}
	execCtx := model.NewExecutionContext("tc-concurrent", tc.Name)
	sched := NewScheduler(reg, reporter.NoopReporter{})

	done := make(chan bool, 1)
	go func() {
		verdict, err := sched.ExecuteTestCase(context.Background(), tc, execCtx)
		require.NoError(t, err)
		done <- verdict
	}()

	// Give both B and C time to start before releasing them.
	time.Sleep(100 * time.Millisecond)
	close(release)

	select {
	case verdict := <-done:
		assert.True(t, verdict)
	case <-time.After(2 * time.Second):
		t.Fatal("ExecuteTestCase did not complete")
	}

	assert.Equal(t, int64(2), atomic.LoadInt64(&maxSeen), "B and C should have overlapped")
}

type actionFunc struct {
	name string
	fn   func(context.Context, model.Step) (*model.ActionResult, error)
}

func newActionFunc(name string, fn func(context.Context, model.Step) (*model.ActionResult, error)) actionFunc {
	return actionFunc{name: name, fn: fn}
}

func (a actionFunc) Name() string { return a.name }

func (a actionFunc) Execute(ctx context.Context, step model.Step) (*model.ActionResult, error) {
	return a.fn(ctx, step)
}
