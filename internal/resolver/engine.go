package resolver

import "context"

// Engine evaluates an expression string against a data scope. Two
// implementations back the builtin expr.eval and cel.eval actions; gojq.go
// provides a third, jq-flavored transform engine with a slightly different
// shape (it operates on a single JSON value rather than a named scope).
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}
