package querysql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnsafeQuery marks a statement rejected by the post-build validator.
// Hitting it indicates a builder defect, not bad user input: the intent
// validator should have stopped anything user-controlled long before here.
var ErrUnsafeQuery = errors.New("unsafe query")

var (
	placeholderRe = regexp.MustCompile(`\$\d+`)
	dangerousRe   = regexp.MustCompile(`(?i)\b(DROP|DELETE|UPDATE|INSERT|ALTER|CREATE|TRUNCATE)\b`)
)

// CheckQuery is the last line of defense, run immediately before execution
// and independent of intent validation. It rejects:
//
//   - statements not beginning with SELECT
//   - dangerous keywords appearing after a semicolon (piggybacked statements)
//   - unbalanced parentheses
//   - a distinct-placeholder count that does not exactly equal the number of
//     bound parameters
//   - nil parameters
func CheckQuery(q Query) error {
	trimmed := strings.TrimSpace(q.SQL)
	if !strings.HasPrefix(strings.ToUpper(trimmed), "SELECT") {
		return fmt.Errorf("%w: statement does not begin with SELECT", ErrUnsafeQuery)
	}

	if parts := strings.Split(q.SQL, ";"); len(parts) > 1 {
		for _, tail := range parts[1:] {
			if dangerousRe.MatchString(tail) {
				return fmt.Errorf("%w: dangerous keyword after semicolon", ErrUnsafeQuery)
			}
		}
	}

	depth := 0
	for _, r := range q.SQL {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unbalanced parentheses", ErrUnsafeQuery)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: unbalanced parentheses", ErrUnsafeQuery)
	}

	distinct := map[string]bool{}
	for _, ph := range placeholderRe.FindAllString(q.SQL, -1) {
		distinct[ph] = true
	}
	if len(distinct) != len(q.Params) {
		return fmt.Errorf("%w: %d distinct placeholders but %d parameters",
			ErrUnsafeQuery, len(distinct), len(q.Params))
	}

	for i, p := range q.Params {
		if p == nil {
			return fmt.Errorf("%w: parameter %d is nil", ErrUnsafeQuery, i+1)
		}
	}

	return nil
}
