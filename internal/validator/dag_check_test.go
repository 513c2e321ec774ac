package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rendis/runcase/pkg/model"
)

func TestAnalyzeReachability_NoDependencies(t *testing.T) {
	tc := &model.TestCase{Steps: []model.Step{step("A"), step("B"), step("C")}}
	r := AnalyzeReachability(tc)
	assert.Len(t, r.Layers, 1)
	assert.ElementsMatch(t, []string{"A", "B", "C"}, r.Layers[0])
	assert.Equal(t, 3, r.MaxLayerWidth())
}

func TestAnalyzeReachability_LinearChain(t *testing.T) {
	tc := &model.TestCase{Steps: []model.Step{
		step("A"),
		step("B", "A"),
		step("C", "B"),
	}}
	r := AnalyzeReachability(tc)
	assert.Len(t, r.Layers, 3)
	assert.Equal(t, []string{"A"}, r.Layers[0])
	assert.Equal(t, []string{"B"}, r.Layers[1])
	assert.Equal(t, []string{"C"}, r.Layers[2])
	assert.Equal(t, 1, r.MaxLayerWidth())
}

func TestAnalyzeReachability_DiamondShape(t *testing.T) {
	tc := &model.TestCase{Steps: []model.Step{
		step("A"),
		step("B", "A"),
		step("C", "A"),
		step("D", "B", "C"),
	}}
	r := AnalyzeReachability(tc)
	assert.Len(t, r.Layers, 3)
	assert.ElementsMatch(t, []string{"B", "C"}, r.Layers[1])
	assert.Equal(t, 2, r.MaxLayerWidth())
}
