package actions

import (
	"context"

	"github.com/rendis/runcase/pkg/model"
)

// RegisterBuiltins registers the demo action bundle the engine ships with
// so a test case can run out of the box: nop, echo, fail, the three
// expression-engine actions, http.request, and the two assertion actions.
// Callers may register additional actions (their own HTTP/DB/gRPC clients)
// into the same Registry before executing a test case.
func RegisterBuiltins(reg *Registry, httpCfg HTTPConfig) error {
	all := []Action{
		nopAction{},
		echoAction{},
		failAction{},
		newExprEvalAction(),
		newCELEvalAction(),
		newJQAction(),
		NewHTTPRequestAction(httpCfg),
		assertAction{},
		assertSchemaAction{},
	}

	for _, a := range all {
		if err := reg.Register(a); err != nil {
			return err
		}
	}
	return nil
}

// --- nop ---

// nopAction always succeeds with an empty output. Useful as a placeholder
// step, or as the simplest possible dependency target in a DAG test case.
type nopAction struct{}

func (nopAction) Name() string { return "nop" }

func (nopAction) Execute(context.Context, model.Step) (*model.ActionResult, error) {
	return jsonOutput(true, map[string]any{}), nil
}

// --- echo ---

// echoAction succeeds with output equal to its resolved params, unchanged.
// Useful for seeding a fixed value other steps reference via the
// resolver, and for the testable-property scenarios that need a
// deterministic upstream result.
type echoAction struct{}

func (echoAction) Name() string { return "echo" }

func (echoAction) Execute(_ context.Context, step model.Step) (*model.ActionResult, error) {
	params, err := decodeParams(step)
	if err != nil {
		return nil, err
	}
	return jsonOutput(true, params), nil
}

// --- fail ---

// failAction always returns success: false. Its output.error is its
// "message" param, defaulting to a generic message when absent. Used
// throughout the failure-branch and dependency-failure-propagation
// scenarios.
type failAction struct{}

func (failAction) Name() string { return "fail" }

func (failAction) Execute(_ context.Context, step model.Step) (*model.ActionResult, error) {
	params, err := decodeParams(step)
	if err != nil {
		return nil, err
	}
	msg := stringParam(params, "message", "step failed")
	return jsonOutput(false, map[string]any{"error": msg}), nil
}
