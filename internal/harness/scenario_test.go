package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario("testdata/row_sleep_week.yaml")
	require.NoError(t, err)

	assert.Equal(t, "row_sleep_week", s.Name)
	assert.Equal(t, "user-1", s.User)
	assert.Equal(t, "2025-06-15", s.Today)
	assert.Contains(t, s.Intent, "totalSleepHours")
	require.Len(t, s.Rows, 2)
	require.NotNil(t, s.Expect.RowCount)
	assert.Equal(t, 2, *s.Expect.RowCount)
}

func TestLoadScenario_UnknownFieldRejected(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: has a typo
user: u
today: "2025-06-15"
intent: "{}"
expectation:
  success: true
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
}

func TestLoadScenario_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no name", "description: d\nuser: u\ntoday: \"2025-01-01\"\nintent: \"{}\"\n", "name is required"},
		{"no description", "name: n\nuser: u\ntoday: \"2025-01-01\"\nintent: \"{}\"\n", "description is required"},
		{"no user", "name: n\ndescription: d\ntoday: \"2025-01-01\"\nintent: \"{}\"\n", "user is required"},
		{"no today", "name: n\ndescription: d\nuser: u\nintent: \"{}\"\n", "today is required"},
		{"no intent", "name: n\ndescription: d\nuser: u\ntoday: \"2025-01-01\"\n", "intent is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadScenario_ReasonRequiresSuccess(t *testing.T) {
	path := writeScenario(t, `
name: n
description: d
user: u
today: "2025-01-01"
intent: "{}"
expect:
  success: false
  reason: why
`)
	_, err := LoadScenario(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reason implies")
}

func TestLoadScenarios(t *testing.T) {
	scenarios, err := LoadScenarios("testdata")
	require.NoError(t, err)

	names := make([]string, 0, len(scenarios))
	for _, s := range scenarios {
		names = append(names, s.Name)
	}
	assert.Contains(t, names, "row_sleep_week")
	assert.Contains(t, names, "unsatisfiable")
	assert.Contains(t, names, "unknown_field")
	assert.IsNonDecreasing(t, names, "scenarios load in sorted file order")
}
