package config

import (
	"encoding/json"
	"os"
)

// LoadMap reads a flat dotted-key configuration file (JSON object of
// string values) the way a settings.json layer is read: missing files
// yield an empty map rather than an error, since the environment
// projection alone is a valid configuration source.
func LoadMap(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}

	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, err
	}
	return flat, nil
}
