package actions

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rendis/runcase/internal/assertion"
	"github.com/rendis/runcase/pkg/model"
)

func TestAssertAction_Pass(t *testing.T) {
	a := assertAction{}
	assert.Equal(t, "assert", a.Name())

	step := model.Step{ID: "A", Params: json.RawMessage(`{"expected":{"name":"test"},"actual":{"name":"test","extra":1}}`)}
	result, err := a.Execute(context.Background(), step)
	require.NoError(t, err)
	assert.True(t, result.Success)

	out := result.Output.(map[string]any)
	results := out["results"].([]assertion.AssertionResult)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
}

func TestAssertAction_Fail(t *testing.T) {
	a := assertAction{}
	step := model.Step{ID: "A", Params: json.RawMessage(`{"expected":{"name":"test"},"actual":{"name":"other"}}`)}
	result, err := a.Execute(context.Background(), step)
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestAssertSchemaAction_Valid(t *testing.T) {
	a := assertSchemaAction{}
	assert.Equal(t, "assert.schema", a.Name())

	step := model.Step{ID: "A", Params: json.RawMessage(`{
		"actual": {"name": "test", "age": 25},
		"schema": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string"},
				"age": {"type": "number"}
			}
		}
	}`)}
	result, err := a.Execute(context.Background(), step)
	require.NoError(t, err)
	assert.True(t, result.Success)
}

func TestAssertSchemaAction_Invalid(t *testing.T) {
	a := assertSchemaAction{}
	step := model.Step{ID: "A", Params: json.RawMessage(`{
		"actual": {"age": "not a number"},
		"schema": {
			"type": "object",
			"required": ["name"],
			"properties": {
				"name": {"type": "string"},
				"age": {"type": "number"}
			}
		}
	}`)}
	result, err := a.Execute(context.Background(), step)
	require.NoError(t, err)
	assert.False(t, result.Success)
}
