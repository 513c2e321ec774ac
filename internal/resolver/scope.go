package resolver

import (
	"encoding/json"

	"github.com/rendis/runcase/pkg/model"
)

// DeepCopyStep clones a Step so the Scheduler can hand the Resolver a copy
// that is safe to mutate in place (per-step procedure step 1, spec §4.5.1).
// The TestCase itself is never touched.
func DeepCopyStep(s model.Step) model.Step {
	cp := s
	cp.Params = deepCopyRaw(s.Params)
	if s.DependsOn != nil {
		cp.DependsOn = append([]string(nil), s.DependsOn...)
	}
	return cp
}

// deepCopyRaw clones a json.RawMessage so later mutation of the copy never
// aliases the original bytes.
func deepCopyRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	cp := make(json.RawMessage, len(raw))
	copy(cp, raw)
	return cp
}
