package resolver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoJQEngine_ImplementsEngine(t *testing.T) {
	var _ Engine = (*GoJQEngine)(nil)
}

func TestGoJQEngine_SingleOutput(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), ".a", map[string]any{"a": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestGoJQEngine_MultipleOutputsCollectIntoSlice(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), ".items[]", map[string]any{
		"items": []any{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out)
}

func TestGoJQEngine_ZeroOutputsReturnNil(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), ".missing[]?", map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestNormalizeForJQ_ConvertsIntegerTypesToFloat64(t *testing.T) {
	out := normalizeForJQ(map[string]any{"n": int64(3), "list": []any{int32(4)}})
	m := out.(map[string]any)
	assert.Equal(t, float64(3), m["n"])
	assert.Equal(t, []any{float64(4)}, m["list"])
}

func TestGoJQEngine_EmptyExpressionErrors(t *testing.T) {
	e := NewGoJQEngine()
	_, err := e.Evaluate(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestGoJQEngine_ParseErrorSurfaces(t *testing.T) {
	e := NewGoJQEngine()
	_, err := e.Evaluate(context.Background(), ".[", nil)
	assert.Error(t, err)
}
