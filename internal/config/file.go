package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// loadFile overlays a YAML document onto cfg. Keys absent from the file keep
// their current values.
func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
