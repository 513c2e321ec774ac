package actions

import (
	"encoding/json"

	"github.com/rendis/runcase/pkg/model"
)

// decodeParams decodes a step's resolved Params into a generic map. An
// empty/nil Params decodes to an empty map so callers never need a nil
// check.
func decodeParams(step model.Step) (map[string]any, error) {
	if len(step.Params) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(step.Params, &out); err != nil {
		return nil, model.NewErrorf(model.ErrCodeValidation, "decode params for step %q: %s", step.ID, err.Error()).WithStep(step.ID).WithCause(err)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}

func stringParam(m map[string]any, key, defaultVal string) string {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	s, ok := v.(string)
	if !ok {
		return defaultVal
	}
	return s
}

func boolParam(m map[string]any, key string, defaultVal bool) bool {
	v, ok := m[key]
	if !ok {
		return defaultVal
	}
	b, ok := v.(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// jsonOutput marshals v into an ActionResult's Output field verbatim;
// actions pass already-decoded Go values (map[string]any, []any, scalars)
// rather than raw JSON.
func jsonOutput(success bool, output any) *model.ActionResult {
	return &model.ActionResult{Success: success, Output: output}
}
