package harness

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"strings"

	"github.com/realjackcrew/leornian-query/internal/engine"
	"github.com/realjackcrew/leornian-query/internal/testutil"
)

// Outcome bundles a scenario's result with the store that recorded its
// statements.
type Outcome struct {
	Result *engine.Result
	Store  *testutil.FixtureStore
}

// Run executes one scenario through the full pipeline against fixture
// collaborators. The execution token is pinned to the scenario name.
func Run(ctx context.Context, s *Scenario) *Outcome {
	st := testutil.NewFixtureStore(normalizeRows(s.Rows))

	exec := engine.New(engine.Config{
		Store:  st,
		Dates:  testutil.FixtureDates{First: s.FirstLogDate},
		Clock:  engine.FixedClock(s.Today),
		Tokens: testutil.NewConstantTokenGenerator("scenario-" + s.Name),
		Logger: slog.New(slog.DiscardHandler),
	})

	res := exec.ExecuteFromJSON(ctx, s.Intent, s.User, engine.Options{IncludeCount: s.IncludeCount})
	return &Outcome{Result: res, Store: st}
}

// Check compares an outcome against the scenario's expectations and
// returns one message per failed check. Empty means the scenario passed.
func Check(s *Scenario, o *Outcome) []string {
	var failures []string
	res := o.Result

	if res.Success != s.Expect.Success {
		failures = append(failures,
			fmt.Sprintf("success = %v, want %v (error: %s)", res.Success, s.Expect.Success, res.Error))
	}
	if s.Expect.Reason != "" && res.Reason != s.Expect.Reason {
		failures = append(failures,
			fmt.Sprintf("reason = %q, want %q", res.Reason, s.Expect.Reason))
	}
	for _, want := range s.Expect.ErrorContains {
		if !strings.Contains(res.Error, want) {
			failures = append(failures,
				fmt.Sprintf("error %q does not contain %q", res.Error, want))
		}
	}
	for _, want := range s.Expect.WarningContains {
		if !warningsContain(res.Warnings, want) {
			failures = append(failures,
				fmt.Sprintf("no warning contains %q (warnings: %v)", want, res.Warnings))
		}
	}
	if s.Expect.RowCount != nil && len(res.Data) != *s.Expect.RowCount {
		failures = append(failures,
			fmt.Sprintf("row count = %d, want %d", len(res.Data), *s.Expect.RowCount))
	}
	if s.Expect.GroupCount != nil && len(res.Aggregations) != *s.Expect.GroupCount {
		failures = append(failures,
			fmt.Sprintf("group count = %d, want %d", len(res.Aggregations), *s.Expect.GroupCount))
	}
	if s.Expect.Params != nil && !reflect.DeepEqual(res.QueryParams, s.Expect.Params) {
		failures = append(failures,
			fmt.Sprintf("params = %v, want %v", res.QueryParams, s.Expect.Params))
	}
	return failures
}

// normalizeRows converts YAML-decoded fixture rows into the shapes the
// pipeline sees from the driver: YAML decodes numbers as int, JSONB values
// arrive as float64 in production.
func normalizeRows(rows []map[string]any) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		out[i] = normalizeMap(row)
	}
	return out
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case []any:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	case int:
		return float64(val)
	default:
		return v
	}
}

func warningsContain(warnings []string, want string) bool {
	for _, w := range warnings {
		if strings.Contains(w, want) {
			return true
		}
	}
	return false
}
