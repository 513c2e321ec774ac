// Package validator implements the fail-fast structural checks a TestCase
// must pass before the Scheduler will run it (spec §4.1). All four checks
// run in order; the first violation short-circuits the remaining ones,
// matching the teacher's own validate-then-stop pipeline in
// internal/validation/workflow.go, simplified from three stages to four
// ordered checks since this engine has no nested step types or JSON-Schema
// input contracts to validate structurally.
package validator

import (
	"strings"

	"github.com/rendis/runcase/pkg/model"
)

// Validator checks a TestCase for correctness before execution.
type Validator interface {
	Validate(tc *model.TestCase) error
}

// StepValidator is the default Validator. It has no dependencies: all four
// checks operate purely on the TestCase's own declared structure.
type StepValidator struct{}

// NewStepValidator creates the default Validator.
func NewStepValidator() *StepValidator {
	return &StepValidator{}
}

var _ Validator = (*StepValidator)(nil)

// Validate runs the four checks of spec §4.1 in order, returning the first
// violation as a *model.RunError with ErrCodeValidation. A nil return means
// the TestCase is safe to pass to the Scheduler.
func (v *StepValidator) Validate(tc *model.TestCase) error {
	if tc == nil {
		return model.NewError(model.ErrCodeValidation, "test case is nil")
	}

	if err := checkUniqueIDs(tc); err != nil {
		return err
	}
	if err := checkDependencyTargetsExist(tc); err != nil {
		return err
	}
	if err := checkDependencyOrdering(tc); err != nil {
		return err
	}
	if err := checkConditionalSyntax(tc); err != nil {
		return err
	}
	return nil
}

// checkUniqueIDs implements spec §4.1 check 1: every step id appears at
// most once.
func checkUniqueIDs(tc *model.TestCase) error {
	seen := make(map[string]bool, len(tc.Steps))
	var dupes []string
	dupeSeen := make(map[string]bool)
	for _, s := range tc.Steps {
		if seen[s.ID] {
			if !dupeSeen[s.ID] {
				dupes = append(dupes, s.ID)
				dupeSeen[s.ID] = true
			}
			continue
		}
		seen[s.ID] = true
	}
	if len(dupes) > 0 {
		return model.NewErrorf(model.ErrCodeValidation,
			"duplicate step id(s): %s", strings.Join(dupes, ", ")).
			WithDetails(map[string]any{"duplicate_ids": dupes})
	}
	return nil
}

// checkDependencyTargetsExist implements spec §4.1 check 2: every
// depends_on id names some step in the case.
func checkDependencyTargetsExist(tc *model.TestCase) error {
	ids := stepIndexByID(tc)
	for _, s := range tc.Steps {
		for _, dep := range s.DependsOn {
			if _, ok := ids[dep]; !ok {
				return model.NewErrorf(model.ErrCodeValidation,
					"step %q depends_on non-existent step %q", s.ID, dep).
					WithStep(s.ID)
			}
		}
	}
	return nil
}

// checkDependencyOrdering implements spec §4.1 check 3: if step at index i
// depends on id d, the step with id d must be at some index j with j < i.
// This is strictly stronger than acyclicity: it obviates a cycle detector.
func checkDependencyOrdering(tc *model.TestCase) error {
	index := stepIndexByID(tc)
	for i, s := range tc.Steps {
		for _, dep := range s.DependsOn {
			j, ok := index[dep]
			if !ok {
				continue // reported by checkDependencyTargetsExist
			}
			if j >= i {
				return model.NewErrorf(model.ErrCodeValidation,
					"step %q depends_on %q, which is not declared earlier in the step sequence", s.ID, dep).
					WithStep(s.ID)
			}
		}
	}
	return nil
}

// checkConditionalSyntax implements spec §4.1 check 4: any if value, after
// case-folding and trimming, must be one of always(), success(), failure().
func checkConditionalSyntax(tc *model.TestCase) error {
	for _, s := range tc.Steps {
		if _, ok := model.ParseGuard(s.If); !ok {
			return model.NewErrorf(model.ErrCodeValidation,
				"step %q has unrecognized conditional %q", s.ID, s.If).
				WithStep(s.ID)
		}
	}
	return nil
}

// stepIndexByID returns each step's 0-based position in declared order,
// keyed by id. Spec §4.1 check 3 depends on this order being the same
// order the Scheduler later honors in Sequential Mode.
func stepIndexByID(tc *model.TestCase) map[string]int {
	idx := make(map[string]int, len(tc.Steps))
	for i, s := range tc.Steps {
		idx[s.ID] = i
	}
	return idx
}
