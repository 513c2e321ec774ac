package main

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rendis/runcase/pkg/model"
)

// loadTestCase reads a YAML test-case document. yaml.v3 decodes into a
// generic map[string]any first; round-tripping through encoding/json lets
// the same struct tags (id, depends_on, ...) that already describe the
// wire JSON format double as the YAML field names, so model.TestCase
// needs no separate yaml struct tags. A step with no id is assigned
// model.DefaultStepID of its position.
func loadTestCase(path string) (*model.TestCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test case: %w", err)
	}

	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}

	bridged, err := json.Marshal(generic)
	if err != nil {
		return nil, fmt.Errorf("bridge yaml to json: %w", err)
	}

	var tc model.TestCase
	if err := json.Unmarshal(bridged, &tc); err != nil {
		return nil, fmt.Errorf("decode test case: %w", err)
	}
	for i := range tc.Steps {
		if tc.Steps[i].ID == "" {
			tc.Steps[i].ID = model.DefaultStepID(i)
		}
	}
	return &tc, nil
}
