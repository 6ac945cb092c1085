package conf

import (
	"fmt"
	"os"
)

// LoadSettings reads a YAML file of caller settings. Nested mappings become
// dotted keys, so
//
//	es:
//	  resource: artists/data
//
// yields {"es.resource": "artists/data"}.
func LoadSettings(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	settings, err := parseFlat(data)
	if err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	return settings, nil
}

// MergeSettings returns a new map holding base overlaid by each override in order.
func MergeSettings(base map[string]string, overrides ...map[string]string) map[string]string {
	out := copyMap(base)
	for _, o := range overrides {
		for k, v := range o {
			out[k] = v
		}
	}
	return out
}
