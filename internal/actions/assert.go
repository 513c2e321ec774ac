package actions

import (
	"context"

	"github.com/rendis/runcase/internal/assertion"
	"github.com/rendis/runcase/internal/resolver"
	"github.com/rendis/runcase/pkg/model"
)

// assertAction runs the Assertion Evaluator over params.expected vs.
// params.actual, succeeding iff every AssertionResult passed. Params are
// already resolved by the time the action sees them: {expr} placeholders
// have been substituted by the scheduler's resolve pass. That pass does
// not touch the "[<var>]" short form, and the evaluator runs here against
// an empty ResolveContext, so a "[<var>]" expected value is not resolved
// against step results and is compared as its literal text.
type assertAction struct{}

func (assertAction) Name() string { return "assert" }

func (assertAction) Execute(_ context.Context, step model.Step) (*model.ActionResult, error) {
	params, err := decodeParams(step)
	if err != nil {
		return nil, err
	}

	results := assertion.Evaluate(params["expected"], params["actual"], &resolver.ResolveContext{})
	return jsonOutput(assertion.Passed(results), map[string]any{"results": results}), nil
}

// assertSchemaAction is a convenience wrapper over the $schema mapping
// supplement: params.schema becomes the expected {"$schema": ...} shape,
// params.actual the value under test.
type assertSchemaAction struct{}

func (assertSchemaAction) Name() string { return "assert.schema" }

func (assertSchemaAction) Execute(_ context.Context, step model.Step) (*model.ActionResult, error) {
	params, err := decodeParams(step)
	if err != nil {
		return nil, err
	}

	expected := map[string]any{"$schema": params["schema"]}
	results := assertion.Evaluate(expected, params["actual"], &resolver.ResolveContext{})
	return jsonOutput(assertion.Passed(results), map[string]any{"results": results}), nil
}
