package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGoldenSQL compares the statement a scenario executed against its
// golden file in testdata/golden/{name}.golden.
//
// To regenerate golden files:
//
//	go test ./internal/harness -update
func AssertGoldenSQL(t *testing.T, s *Scenario, o *Outcome) {
	t.Helper()

	if o.Result.ExecutedQuery == "" {
		t.Fatalf("scenario %s executed no query; nothing to compare", s.Name)
	}

	var b strings.Builder
	b.WriteString(o.Result.ExecutedQuery)
	b.WriteString("\n--\n")
	for i, p := range o.Result.QueryParams {
		fmt.Fprintf(&b, "$%d = %v\n", i+1, p)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, []byte(b.String()))
}
