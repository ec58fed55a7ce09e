package engine

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxRenderedRows caps the row listing in text output; the JSON form always
// carries everything.
const maxRenderedRows = 10

var titleCaser = cases.Title(language.English)

// FormatText renders a Result for terminal display. JSON remains the
// canonical form; this is a readable summary for the CLI.
func FormatText(res *Result) string {
	var b strings.Builder

	if !res.Success {
		fmt.Fprintf(&b, "Query failed: %s\n", res.Error)
		writeWarnings(&b, res.Warnings)
		return b.String()
	}

	if res.Reason != "" {
		fmt.Fprintf(&b, "Not answerable: %s\n", res.Reason)
		return b.String()
	}

	writeWarnings(&b, res.Warnings)

	if res.Aggregations != nil {
		fmt.Fprintf(&b, "%d group(s):\n", len(res.Aggregations))
		for _, group := range res.Aggregations {
			b.WriteString("  ")
			for i, k := range sortedKeys(group) {
				if i > 0 {
					b.WriteString("  ")
				}
				fmt.Fprintf(&b, "%s=%v", k, group[k])
			}
			b.WriteByte('\n')
		}
		return b.String()
	}

	fmt.Fprintf(&b, "%d record(s)", len(res.Data))
	if res.TotalCount != nil && *res.TotalCount != len(res.Data) {
		fmt.Fprintf(&b, " of %d total", *res.TotalCount)
	}
	b.WriteString("\n")

	for i, rec := range res.Data {
		if i == maxRenderedRows {
			fmt.Fprintf(&b, "  ... %d more\n", len(res.Data)-maxRenderedRows)
			break
		}
		date, _ := rec["date"].(string)
		fmt.Fprintf(&b, "  %s:", date)
		for _, k := range sortedKeys(rec) {
			if isIdentityKey(k) {
				continue
			}
			fmt.Fprintf(&b, " %s=%s", titleCaser.String(spaceCamel(k)), renderValue(rec[k]))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func writeWarnings(b *strings.Builder, warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(b, "Warning: %s\n", w)
	}
}

func isIdentityKey(k string) bool {
	switch k {
	case "id", "date", "userId", "createdAt", "updatedAt":
		return true
	}
	return false
}

// renderValue abbreviates nested category objects to their first few
// non-nil members so one record stays on one line.
func renderValue(v any) string {
	m, ok := v.(map[string]any)
	if !ok {
		return fmt.Sprintf("%v", v)
	}
	parts := []string{}
	for _, k := range sortedKeys(m) {
		if m[k] == nil {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s:%v", k, m[k]))
		if len(parts) == 3 {
			parts = append(parts, "...")
			break
		}
	}
	return "{" + strings.Join(parts, " ") + "}"
}

// spaceCamel turns totalSleepHours into "total Sleep Hours" so the title
// caser can produce "Total Sleep Hours".
func spaceCamel(s string) string {
	var b strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
