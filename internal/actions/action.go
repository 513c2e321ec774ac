// Package actions implements the Action Registry and the builtin action
// bundle that ships with the engine so it is runnable out of the box.
package actions

import (
	"context"

	"github.com/rendis/runcase/pkg/model"
)

// Action is an executable unit of work dispatched by a step's kind. Execute
// receives a Step whose Params have already been resolved (placeholders
// substituted) by the scheduler; the action decodes its own params shape
// from that JSON. A raised error is treated by the caller exactly like a
// {success: false, output: {error, stack}} result (spec §4.3); actions
// should still prefer returning a failed ActionResult when the failure is
// an expected outcome of the action's own logic (e.g. the fail or assert
// actions) rather than an unexpected one.
//
// Actions may block on I/O and must be safe for concurrent use: the
// scheduler may invoke the same registered Action for multiple ready
// steps at once.
type Action interface {
	Name() string
	Execute(ctx context.Context, step model.Step) (*model.ActionResult, error)
}

// ActionRegistry manages the lifecycle and lookup of available actions.
type ActionRegistry interface {
	Register(action Action) error
	Get(name string) (Action, error)
	Has(name string) bool
	List() []string
}
