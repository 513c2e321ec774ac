package validator

import "github.com/rendis/runcase/pkg/model"

// Reachability is a defensive, non-fail-fast scan over a TestCase's
// dependency graph. Spec §4.1 check 3 (backward-ordering) already
// guarantees acyclicity by construction, so this never rejects a TestCase;
// it exists only to group a DAG-Mode run's steps into dependency "layers",
// the widest of which the Scheduler uses to size its worker pool when no
// explicit MaxConcurrency is set (SPEC_FULL §6).
type Reachability struct {
	// Layers groups step ids by dependency depth: Layers[0] are steps with
	// no depends_on, Layers[1] depend only on Layers[0] steps, and so on.
	Layers [][]string
}

// AnalyzeReachability computes dependency layers for an already-validated
// TestCase. Callers must run Validator.Validate first; this function does
// not re-check ordering.
func AnalyzeReachability(tc *model.TestCase) Reachability {
	depth := make(map[string]int, len(tc.Steps))
	index := stepIndexByID(tc)

	for _, s := range tc.Steps {
		maxDep := -1
		for _, dep := range s.DependsOn {
			if _, ok := index[dep]; !ok {
				continue
			}
			if d := depth[dep]; d > maxDep {
				maxDep = d
			}
		}
		depth[s.ID] = maxDep + 1
	}

	maxLevel := 0
	for _, d := range depth {
		if d > maxLevel {
			maxLevel = d
		}
	}

	layers := make([][]string, maxLevel+1)
	for _, s := range tc.Steps {
		d := depth[s.ID]
		layers[d] = append(layers[d], s.ID)
	}

	return Reachability{Layers: layers}
}

// MaxLayerWidth returns the largest number of steps sharing a dependency
// layer, a reasonable default worker-pool size for a DAG-Mode run that
// wants maximum legitimate parallelism without over-provisioning.
func (r Reachability) MaxLayerWidth() int {
	max := 0
	for _, layer := range r.Layers {
		if len(layer) > max {
			max = len(layer)
		}
	}
	return max
}
