package intent

import (
	"context"
	"fmt"
	"math"
	"regexp"

	"github.com/realjackcrew/leornian-query/internal/registry"
)

// DateLayout is the ISO date shape used throughout the pipeline.
const DateLayout = "2006-01-02"

var (
	dateRe  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// FirstLogDateProvider resolves the earliest date a user has a logged record.
// The second return value is false when the user has no history at all.
type FirstLogDateProvider interface {
	FirstLogDate(ctx context.Context, userID string) (string, bool, error)
}

// Validation is the outcome of validating an intent against a user's data.
//
// Errors block execution entirely; warnings disclose soft corrections (date
// clamping) and execution proceeds. An unsatisfiable intent validates clean -
// it is a recognized terminal state, not a failure.
type Validation struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate checks a normalized intent against the business rules and against
// the caller's actual data. today is an ISO date (the clock is injected by
// the engine so tests are deterministic).
//
// The intent is treated as immutable except for the two date-clamping
// corrections, which Validate applies in place.
func Validate(ctx context.Context, q *QueryIntent, userID string, dates FirstLogDateProvider, today string) Validation {
	v := &checker{}

	// An unsatisfiable intent short-circuits: valid, but the caller renders
	// the reason instead of executing.
	if !q.IsSatisfiable {
		if q.Reason == "" {
			v.errorf("unsatisfiable intent must carry a reason")
		}
		return v.result()
	}

	floor := today
	first, ok, err := dates.FirstLogDate(ctx, userID)
	if err != nil {
		v.errorf("look up first log date: %v", err)
		return v.result()
	}
	if ok {
		floor = first
	}

	v.checkTimeRange(q, floor, today)

	reg := registry.Default()
	v.checkSelections(q, reg)

	if q.HasAggregations() && len(q.Aggregations.GroupBy) == 0 {
		v.errorf("aggregations require a non-empty groupBy")
	}

	available := q.AvailableFields(reg.FieldsOf)
	v.checkAggregationTargets(q, available)
	v.checkFilters(q, available)
	v.checkSorting(q, available)

	return v.result()
}

// checker accumulates errors and warnings during validation.
type checker struct {
	errors   []string
	warnings []string
}

func (v *checker) errorf(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *checker) warnf(format string, args ...any) {
	v.warnings = append(v.warnings, fmt.Sprintf(format, args...))
}

func (v *checker) result() Validation {
	errs := v.errors
	if errs == nil {
		errs = []string{}
	}
	warns := v.warnings
	if warns == nil {
		warns = []string{}
	}
	return Validation{IsValid: len(errs) == 0, Errors: errs, Warnings: warns}
}

// checkTimeRange enforces presence and YYYY-MM-DD shape, then clamps the
// range into [floor, today]. ISO dates compare correctly as strings, so no
// time parsing is needed. Clamping an already-in-range window is a no-op
// with zero warnings.
func (v *checker) checkTimeRange(q *QueryIntent, floor, today string) {
	start, end := q.TimeRange.StartDate, q.TimeRange.EndDate
	if start == "" {
		v.errorf("timeRange.startDate is required")
	} else if !dateRe.MatchString(start) {
		v.errorf("timeRange.startDate %q is not a YYYY-MM-DD date", start)
	}
	if end == "" {
		v.errorf("timeRange.endDate is required")
	} else if !dateRe.MatchString(end) {
		v.errorf("timeRange.endDate %q is not a YYYY-MM-DD date", end)
	}
	if !dateRe.MatchString(start) || !dateRe.MatchString(end) {
		return
	}

	if start < floor {
		v.warnf("startDate %s precedes the first logged day; adjusted to %s", start, floor)
		q.TimeRange.StartDate = floor
	}
	if end > today {
		v.warnf("endDate %s is in the future; adjusted to %s", end, today)
		q.TimeRange.EndDate = today
	}
	if q.TimeRange.StartDate > q.TimeRange.EndDate {
		v.errorf("startDate %s is after endDate %s", q.TimeRange.StartDate, q.TimeRange.EndDate)
	}
}

// checkSelections requires at least one selection the registry recognizes
// and rejects every unknown selection individually.
func (v *checker) checkSelections(q *QueryIntent, reg *registry.Registry) {
	known := 0
	for _, f := range q.SelectedFields {
		if !reg.IsDatapoint(f) {
			v.errorf("unknown field %q", f)
			continue
		}
		known++
	}
	for _, c := range q.SelectedCategories {
		if !reg.IsCategory(c) {
			v.errorf("unknown category %q", c)
			continue
		}
		known++
	}
	if known == 0 {
		v.errorf("at least one known field or category must be selected")
	}
}

func (v *checker) checkAggregationTargets(q *QueryIntent, available map[string]bool) {
	agg := q.Aggregations
	for _, f := range agg.Averages {
		v.requireAvailable(available, f, "averages")
	}
	for _, f := range agg.Sums {
		v.requireAvailable(available, f, "sums")
	}
	for _, f := range agg.Lists {
		v.requireAvailable(available, f, "lists")
	}
	for _, c := range agg.Counts {
		v.requireAvailable(available, c.Field, "counts")
		if c.Alias != "" && !identRe.MatchString(c.Alias) {
			// The alias lands in a SQL projection; anything but a plain
			// identifier is rejected here rather than quoted downstream.
			v.errorf("count alias %q is not a valid identifier", c.Alias)
		}
		if c.Filter != nil {
			v.checkFilter(*c.Filter, available)
		}
	}
	for _, g := range agg.GroupBy {
		v.requireAvailable(available, g, "groupBy")
	}
}

func (v *checker) checkFilters(q *QueryIntent, available map[string]bool) {
	for _, f := range q.Filters {
		v.checkFilter(f, available)
	}
}

func (v *checker) checkFilter(f Filter, available map[string]bool) {
	v.requireAvailable(available, f.FieldName, "filters")
	switch f.Operator {
	case OpEq, OpNe, OpGt, OpLt, OpGte, OpLte:
	default:
		v.errorf("filter on %q uses unsupported operator %q", f.FieldName, f.Operator)
	}
	if !validFilterValue(f.Value) {
		v.errorf("filter on %q has unsupported value %v", f.FieldName, f.Value)
	}
}

func (v *checker) checkSorting(q *QueryIntent, available map[string]bool) {
	for _, s := range q.Sorting {
		v.requireAvailable(available, s.Field, "sorting")
		if s.Order != SortAsc && s.Order != SortDesc {
			v.errorf("sort on %q has invalid order %q", s.Field, s.Order)
		}
	}
}

func (v *checker) requireAvailable(available map[string]bool, name, where string) {
	if name == "" {
		v.errorf("%s entry is missing a field name", where)
		return
	}
	if !available[name] {
		v.errorf("field %q referenced in %s is not selected or available", name, where)
	}
}

// validFilterValue accepts booleans, finite numbers, ISO dates, 24-hour
// HH:MM times, and non-empty strings. Everything else (null, arrays,
// objects, empty strings, NaN/Inf) is rejected.
func validFilterValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return true
	case float64:
		return !math.IsNaN(val) && !math.IsInf(val, 0)
	case int, int64:
		return true
	case string:
		if val == "" {
			return false
		}
		return true // dates, times, and free-text strings all acceptable
	default:
		return false
	}
}

// IsISODate reports whether s has YYYY-MM-DD shape.
func IsISODate(s string) bool { return dateRe.MatchString(s) }

// IsClockTime reports whether s has 24-hour HH:MM shape.
func IsClockTime(s string) bool { return timeRe.MatchString(s) }
