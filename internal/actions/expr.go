package actions

import (
	"context"

	"github.com/rendis/runcase/internal/resolver"
	"github.com/rendis/runcase/pkg/model"
)

// exprEngineAction wraps a resolver.Engine as an Action: decode params,
// evaluate "expression" against "data", wrap the result in output.result.
// All three expression builtins (expr.eval, cel.eval, jq) share this
// shape; they differ only in which Engine backs them.
type exprEngineAction struct {
	name   string
	engine resolver.Engine
}

func newExprEvalAction() Action {
	return &exprEngineAction{name: "expr.eval", engine: resolver.NewExprEngine()}
}

func newCELEvalAction() Action {
	engine, err := resolver.NewCELEngine()
	if err != nil {
		// The CEL environment is built once from a fixed declaration set;
		// a failure here means a programming error, not a runtime/input one.
		panic("cel.eval: build environment: " + err.Error())
	}
	return &exprEngineAction{name: "cel.eval", engine: engine}
}

func newJQAction() Action {
	return &exprEngineAction{name: "jq", engine: resolver.NewGoJQEngine()}
}

func (a *exprEngineAction) Name() string { return a.name }

func (a *exprEngineAction) Execute(ctx context.Context, step model.Step) (*model.ActionResult, error) {
	params, err := decodeParams(step)
	if err != nil {
		return nil, err
	}

	expression := stringParam(params, "expression", "")
	data, _ := params["data"].(map[string]any)

	result, err := a.engine.Evaluate(ctx, expression, a.buildEnv(data))
	if err != nil {
		return jsonOutput(false, map[string]any{"error": err.Error()}), nil
	}
	return jsonOutput(true, map[string]any{"result": result}), nil
}

// buildEnv adapts the action's flat "data" param to what the wrapped engine
// expects. ExprEngine and GoJQEngine treat data as the environment/document
// itself: its keys are the expression's own top-level names. CELEngine
// declares a fixed two-variable environment (steps, data) and expects data's
// payload nested under the "data" key instead.
func (a *exprEngineAction) buildEnv(data map[string]any) map[string]any {
	if _, isCEL := a.engine.(*resolver.CELEngine); isCEL {
		return map[string]any{"data": data}
	}
	return data
}
