package querysql

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/realjackcrew/leornian-query/internal/intent"
)

// sqlOps maps the intent's comparison operators onto SQL. Operators outside
// this map never reach the SQL text.
var sqlOps = map[string]string{
	intent.OpEq:  "=",
	intent.OpNe:  "!=",
	intent.OpGt:  ">",
	intent.OpLt:  "<",
	intent.OpGte: ">=",
	intent.OpLte: "<=",
}

var pathKeyRe = regexp.MustCompile(`'([^']*)'`)

// condition renders one filter as a SQL predicate.
//
// Value handling:
//   - nil renders as IS NULL / IS NOT NULL (== vs. everything else)
//   - booleans and shape-constrained strings (ISO dates, HH:MM times) are
//     inlined as quoted literals
//   - numbers are inlined as quoted literals with a ::numeric cast on the
//     extraction, so comparison is numeric rather than lexicographic
//   - any other non-empty string binds as a positional parameter - unless it
//     equals the filter's own field name, which means the LLM echoed a field
//     name where a value belonged; that comparison is short-circuited to an
//     always-false predicate instead of silently matching every row
func (b *builder) condition(f intent.Filter) (string, error) {
	op, ok := sqlOps[f.Operator]
	if !ok {
		return "", fmt.Errorf("filter on %q uses unsupported operator %q", f.FieldName, f.Operator)
	}
	lhs := f.FieldPath
	if lhs == "" {
		return "", fmt.Errorf("filter on %q has no resolved path", f.FieldName)
	}

	switch v := f.Value.(type) {
	case nil:
		if f.Operator == intent.OpEq {
			return lhs + " IS NULL", nil
		}
		return lhs + " IS NOT NULL", nil
	case bool:
		return fmt.Sprintf("%s %s '%t'", lhs, op, v), nil
	case float64:
		return fmt.Sprintf("(%s)::numeric %s '%s'", lhs, op, strconv.FormatFloat(v, 'f', -1, 64)), nil
	case int:
		return fmt.Sprintf("(%s)::numeric %s '%d'", lhs, op, v), nil
	case int64:
		return fmt.Sprintf("(%s)::numeric %s '%d'", lhs, op, v), nil
	case string:
		if v == "" {
			return "", fmt.Errorf("filter on %q has an empty string value", f.FieldName)
		}
		if intent.IsISODate(v) || intent.IsClockTime(v) {
			// Shape-constrained by regexp; cannot carry quoting characters.
			return fmt.Sprintf("%s %s '%s'", lhs, op, v), nil
		}
		if v == f.FieldName || v == pathTail(lhs) {
			return "1 = 0", nil
		}
		return fmt.Sprintf("%s %s %s", lhs, op, b.bind(v)), nil
	default:
		return "", fmt.Errorf("filter on %q has unsupported value type %T", f.FieldName, f.Value)
	}
}

// pathTail extracts the bare field name from the tail of a path expression:
// data->'sleep'->>'totalSleepHours' yields totalSleepHours.
func pathTail(path string) string {
	keys := pathKeyRe.FindAllStringSubmatch(path, -1)
	if len(keys) == 0 {
		return ""
	}
	return keys[len(keys)-1][1]
}
