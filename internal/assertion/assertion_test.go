package assertion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/runcase/internal/resolver"
	"github.com/rendis/runcase/pkg/model"
)

func rcWithSteps(steps map[string]*model.ActionResult) *resolver.ResolveContext {
	return &resolver.ResolveContext{
		TestCaseID:   "tc-1",
		TestCaseName: "suite",
		StepResults:  steps,
	}
}

func TestEvaluate_PrimitiveEquality(t *testing.T) {
	results := Evaluate("hello", "hello", rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Equal(t, "$", results[0].Field)

	results = Evaluate("hello", "goodbye", rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
}

func TestEvaluate_PrimitiveNumericNormalization(t *testing.T) {
	results := Evaluate(float64(3), int64(3), rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
}

func TestEvaluate_VariableShortFormResolvesTypedValue(t *testing.T) {
	rc := rcWithSteps(map[string]*model.ActionResult{
		"A": {Success: true, Output: map[string]any{"count": float64(3)}},
	})

	results := Evaluate("[A.output.count]", float64(3), rc)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Equal(t, float64(3), results[0].Expected)
}

func TestEvaluate_EmbeddedPlaceholderResolvesToString(t *testing.T) {
	rc := rcWithSteps(map[string]*model.ActionResult{
		"A": {Success: true, Output: map[string]any{"name": "alice"}},
	})

	results := Evaluate("hello {A.output.name}", "hello alice", rc)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
}

func TestEvaluate_MappingRecursesPerKeyAndIgnoresExtraActualKeys(t *testing.T) {
	expected := map[string]any{
		"id":   float64(1),
		"name": "bob",
	}
	actual := map[string]any{
		"id":    float64(1),
		"name":  "bob",
		"extra": "ignored",
	}

	results := Evaluate(expected, actual, rcWithSteps(nil))
	require.Len(t, results, 2)
	assert.True(t, Passed(results))

	fields := []string{results[0].Field, results[1].Field}
	assert.Contains(t, fields, "id")
	assert.Contains(t, fields, "name")
}

func TestEvaluate_MappingAgainstNonMappingFails(t *testing.T) {
	results := Evaluate(map[string]any{"id": float64(1)}, "not a map", rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
}

func TestEvaluate_MappingMissingKeyComparesAgainstAbsent(t *testing.T) {
	results := Evaluate(map[string]any{"missing": "present"}, map[string]any{}, rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.Nil(t, results[0].Actual)
}

func TestEvaluate_SequencePositionalComparison(t *testing.T) {
	results := Evaluate([]any{"a", "b"}, []any{"a", "b"}, rcWithSteps(nil))
	require.Len(t, results, 2)
	assert.True(t, Passed(results))
}

func TestEvaluate_SequenceMissingElementsCompareAgainstAbsent(t *testing.T) {
	results := Evaluate([]any{"a", "b", "c"}, []any{"a"}, rcWithSteps(nil))
	require.Len(t, results, 3)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
	assert.False(t, results[2].Passed)
}

func TestEvaluate_SequenceAgainstNonSequenceFails(t *testing.T) {
	results := Evaluate([]any{"a"}, map[string]any{"x": 1}, rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
}

func TestEvaluate_ReservedTokenShouldNotBeNull(t *testing.T) {
	results := Evaluate([]any{"shouldNotBeNull"}, "present", rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)

	results = Evaluate([]any{"shouldNotBeNull"}, nil, rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
}

func TestEvaluate_ReservedTokenShouldBeNullPassesOnAbsentOrNull(t *testing.T) {
	results := Evaluate(map[string]any{"missing": []any{"shouldBeNull"}}, map[string]any{}, rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)

	results = Evaluate(map[string]any{"present": []any{"shouldBeNull"}}, map[string]any{"present": nil}, rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
}

func TestEvaluate_ReservedTokenShouldBeEmpty(t *testing.T) {
	results := Evaluate([]any{"shouldBeEmpty"}, "", rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)

	results = Evaluate([]any{"shouldBeEmpty"}, []any{}, rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)

	results = Evaluate([]any{"shouldBeEmpty"}, []any{"x"}, rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
}

func TestEvaluate_ReservedTokenShouldNotBeEmpty(t *testing.T) {
	results := Evaluate([]any{"shouldNotBeEmpty"}, "x", rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)

	results = Evaluate([]any{"shouldNotBeEmpty"}, "", rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
}

func TestEvaluate_SchemaSupplementValidatesActual(t *testing.T) {
	schemaDoc := map[string]any{
		"type":     "object",
		"required": []any{"id"},
		"properties": map[string]any{
			"id": map[string]any{"type": "integer"},
		},
	}
	expected := map[string]any{"$schema": schemaDoc}

	results := Evaluate(expected, map[string]any{"id": float64(1)}, rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)

	results = Evaluate(expected, map[string]any{"id": "not an integer"}, rcWithSteps(nil))
	require.Len(t, results, 1)
	assert.False(t, results[0].Passed)
	assert.NotEmpty(t, results[0].Message)
}

func TestEvaluate_ReportsAllFailuresNotJustFirst(t *testing.T) {
	expected := map[string]any{"a": "x", "b": "y"}
	actual := map[string]any{"a": "not-x", "b": "not-y"}

	results := Evaluate(expected, actual, rcWithSteps(nil))
	require.Len(t, results, 2)
	assert.False(t, results[0].Passed)
	assert.False(t, results[1].Passed)
}

func TestPassed(t *testing.T) {
	assert.True(t, Passed(nil))
	assert.True(t, Passed([]AssertionResult{{Passed: true}}))
	assert.False(t, Passed([]AssertionResult{{Passed: true}, {Passed: false}}))
}
