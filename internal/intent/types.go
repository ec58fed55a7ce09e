package intent

// FilterMode controls how the filter set combines: every filter, or any.
// There is no per-filter grouping or precedence; the mode applies uniformly
// to the whole set.
type FilterMode string

const (
	FilterModeAnd FilterMode = "AND"
	FilterModeOr  FilterMode = "OR"
)

// SortOrder is a sort direction.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Comparison operators accepted in filters. These are the only operators
// the builder will ever map to SQL.
const (
	OpEq  = "=="
	OpNe  = "!="
	OpGt  = ">"
	OpLt  = "<"
	OpGte = ">="
	OpLte = "<="
)

// Calendar pseudo-fields. These are always "available" to filters, sorting,
// and aggregations without being selected, and the wildcard WildcardAll marks
// a count over whole rows.
const (
	PseudoDate    = "date"
	PseudoWeekday = "weekday"
	PseudoISOWeek = "isoWeek"
	PseudoMonth   = "month"
	PseudoYear    = "year"

	WildcardAll = "__all__"
)

// PseudoFields lists the calendar pseudo-fields in a fixed order.
var PseudoFields = []string{PseudoDate, PseudoWeekday, PseudoISOWeek, PseudoMonth, PseudoYear}

// IsPseudoField reports whether name is a calendar pseudo-field.
func IsPseudoField(name string) bool {
	switch name {
	case PseudoDate, PseudoWeekday, PseudoISOWeek, PseudoMonth, PseudoYear:
		return true
	}
	return false
}

// TimeRange is the inclusive date window a query runs over.
// Dates are ISO YYYY-MM-DD strings; the validator clamps the range into
// [user's first log date, today].
type TimeRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Filter is one comparison against a datapoint. FieldPath is resolved by the
// parser so downstream consumers never re-resolve names. Value holds whatever
// JSON produced: bool, float64, or string.
type Filter struct {
	FieldName string `json:"fieldName"`
	Operator  string `json:"operator"`
	Value     any    `json:"value"`
	FieldPath string `json:"fieldPath,omitempty"`
}

// CountSpec is one count aggregation. A nil Filter counts every row in the
// group; a non-nil Filter turns the count conditional.
type CountSpec struct {
	Alias     string  `json:"alias"`
	Field     string  `json:"field"`
	FieldPath string  `json:"fieldPath,omitempty"`
	Filter    *Filter `json:"filter,omitempty"`
}

// Aggregations holds the four aggregation buckets plus the grouping keys.
// All slices are non-nil after parsing; empty means "not requested".
type Aggregations struct {
	Averages []string    `json:"averages"`
	Sums     []string    `json:"sums"`
	Counts   []CountSpec `json:"counts"`
	Lists    []string    `json:"lists"`
	GroupBy  []string    `json:"groupBy"`
}

// Empty reports whether no aggregation bucket is populated. GroupBy alone
// does not make an intent an aggregation query.
func (a Aggregations) Empty() bool {
	return len(a.Averages) == 0 && len(a.Sums) == 0 && len(a.Counts) == 0 && len(a.Lists) == 0
}

// Sort is one ordering directive.
type Sort struct {
	Field string    `json:"field"`
	Order SortOrder `json:"order"`
}

// Pagination bounds the row-retrieval result set. Zero means unbounded.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// QueryIntent is the normalized description of what to fetch or aggregate.
// Every optional substructure of the raw JSON is defaulted to an
// always-present empty form, so the validator and builder never distinguish
// "missing" from "empty".
type QueryIntent struct {
	// IsSatisfiable is false when the upstream LLM decided the question
	// cannot be answered from available data. Execution short-circuits to
	// an empty result and Reason is surfaced to the caller.
	IsSatisfiable bool   `json:"isSatisfiable"`
	Reason        string `json:"reason,omitempty"`

	TimeRange TimeRange `json:"timeRange"`

	SelectedFields     []string `json:"selectedFields"`
	SelectedCategories []string `json:"selectedCategories"`

	// FieldPaths maps every name referenced anywhere in the intent
	// (selections, category members, filters, aggregation targets, sorts)
	// to its registry path expression. Names the registry does not know
	// are absent; the validator rejects them.
	FieldPaths map[string]string `json:"fieldPaths"`

	Filters     []Filter   `json:"filters"`
	FiltersMode FilterMode `json:"filtersMode"`

	Aggregations Aggregations `json:"aggregations"`
	Sorting      []Sort       `json:"sorting"`
	Pagination   Pagination   `json:"pagination"`
}

// HasAggregations reports whether the intent compiles down the aggregation
// path rather than the row-retrieval path.
func (q *QueryIntent) HasAggregations() bool {
	return !q.Aggregations.Empty()
}

// AvailableFields returns the whitelist of names the intent may reference in
// filters, sorting, and aggregations: every selected field, every member of
// every selected category, the calendar pseudo-fields, and the wildcard.
func (q *QueryIntent) AvailableFields(fieldsOf func(string) []string) map[string]bool {
	available := make(map[string]bool)
	for _, f := range q.SelectedFields {
		available[f] = true
	}
	for _, c := range q.SelectedCategories {
		for _, f := range fieldsOf(c) {
			available[f] = true
		}
	}
	for _, p := range PseudoFields {
		available[p] = true
	}
	available[WildcardAll] = true
	return available
}
