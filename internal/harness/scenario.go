package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of statements run against a fresh server.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario exercises.
	Description string `yaml:"description"`

	// Settings are the caller settings the server is started with.
	Settings map[string]string `yaml:"settings,omitempty"`

	// Steps run in order. ${var} references in SQL are expanded first; see
	// Variables.
	Steps []Step `yaml:"steps"`

	// Dir is the directory the scenario was loaded from.
	Dir string `yaml:"-"`
}

// Step is one statement with an optional expectation.
type Step struct {
	SQL    string  `yaml:"sql"`
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect describes the outcome a step must produce. Without an Expect a step
// only has to succeed.
type Expect struct {
	// Rows must match the result exactly, in order.
	Rows []string `yaml:"rows,omitempty"`

	// RowCount is the expected number of rows.
	RowCount *int `yaml:"row_count,omitempty"`

	// Error is a substring the returned error must contain.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	abs, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scenario directory: %w", err)
	}
	scenario.Dir = abs
	return &scenario, nil
}

// LoadScenarios loads every *.yaml and *.yml file in dir whose base name
// matches filter (a glob; empty matches all), sorted by file name.
func LoadScenarios(dir, filter string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenarios directory: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if filter != "" {
			ok, err := filepath.Match(filter, strings.TrimSuffix(e.Name(), ext))
			if err != nil {
				return nil, fmt.Errorf("invalid filter %q: %w", filter, err)
			}
			if !ok {
				continue
			}
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		sc, err := LoadScenario(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, step := range s.Steps {
		if strings.TrimSpace(step.SQL) == "" {
			return fmt.Errorf("step %d: sql is required", i)
		}
		if step.Expect != nil && step.Expect.Error != "" && (step.Expect.Rows != nil || step.Expect.RowCount != nil) {
			return fmt.Errorf("step %d: expect.error cannot be combined with rows or row_count", i)
		}
	}
	return nil
}
