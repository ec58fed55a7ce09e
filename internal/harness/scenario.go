package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario defines one end-to-end pipeline test: an intent, the world it
// runs against, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies the scenario; it also names the golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario demonstrates.
	Description string `yaml:"description"`

	// User is the user ID the query runs for.
	User string `yaml:"user"`

	// Today pins the clock (YYYY-MM-DD) so date clamping is deterministic.
	Today string `yaml:"today"`

	// FirstLogDate is the user's earliest logged day. Empty means the user
	// has no history.
	FirstLogDate string `yaml:"first_log_date,omitempty"`

	// Intent is the raw intent JSON, exactly as the upstream model would
	// emit it (fencing allowed).
	Intent string `yaml:"intent"`

	// Rows are the fixture rows the store returns for every query.
	Rows []map[string]any `yaml:"rows,omitempty"`

	// IncludeCount requests the secondary total count.
	IncludeCount bool `yaml:"include_count,omitempty"`

	Expect Expectation `yaml:"expect"`
}

// Expectation is a subset match on the pipeline result. Only set fields
// are checked.
type Expectation struct {
	Success bool `yaml:"success"`

	// Reason must match exactly when set (unsatisfiable scenarios).
	Reason string `yaml:"reason,omitempty"`

	// ErrorContains are substrings the result error must carry.
	ErrorContains []string `yaml:"error_contains,omitempty"`

	// WarningContains are substrings that must each appear in some warning.
	WarningContains []string `yaml:"warning_contains,omitempty"`

	// RowCount checks len(Data) when non-nil.
	RowCount *int `yaml:"row_count,omitempty"`

	// GroupCount checks len(Aggregations) when non-nil.
	GroupCount *int `yaml:"group_count,omitempty"`

	// Params checks the executed query's positional parameters exactly.
	Params []any `yaml:"params,omitempty"`
}

// LoadScenario reads and parses one scenario YAML file. Unknown fields are
// rejected to catch typos.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if err := validateScenario(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &s, nil
}

// LoadScenarios loads every *.yaml scenario under dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	out := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.User == "" {
		return fmt.Errorf("user is required")
	}
	if s.Today == "" {
		return fmt.Errorf("today is required")
	}
	if s.Intent == "" {
		return fmt.Errorf("intent is required")
	}
	if s.Expect.Reason != "" && !s.Expect.Success {
		return fmt.Errorf("reason implies a successful (unsatisfiable) outcome")
	}
	return nil
}
