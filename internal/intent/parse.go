package intent

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/realjackcrew/leornian-query/internal/registry"
)

// rawIntent mirrors the JSON the upstream LLM emits. Every substructure is
// optional on the wire; Parse normalizes all of them.
type rawIntent struct {
	IsSatisfiable *bool            `json:"isSatisfiable"`
	Reason        string           `json:"reason"`
	TimeRange     *TimeRange       `json:"timeRange"`
	Fields        []rawField       `json:"fields"`
	Filters       []rawFilter      `json:"filters"`
	FiltersMode   string           `json:"filtersMode"`
	Aggregations  *rawAggregations `json:"aggregations"`
	Sorting       []rawSort        `json:"sorting"`
	Pagination    *Pagination      `json:"pagination"`
}

type rawField struct {
	Name       string `json:"name"`
	IsCategory bool   `json:"isCategory"`
}

type rawFilter struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

type rawAggregations struct {
	Averages []string   `json:"averages"`
	Sums     []string   `json:"sums"`
	Counts   []rawCount `json:"counts"`
	Lists    []string   `json:"lists"`
	GroupBy  []string   `json:"groupBy"`
}

type rawCount struct {
	Alias  string     `json:"alias"`
	Field  string     `json:"field"`
	Filter *rawFilter `json:"filter"`
}

type rawSort struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// Parse converts raw LLM output into a normalized QueryIntent.
//
// The input should contain one JSON object, optionally wrapped in
// triple-backtick fencing (with or without a language tag); the fence is
// stripped before decoding. Decode failures are hard errors wrapping the
// underlying parse error - malformed input means the upstream model
// misbehaved, and there is nothing to salvage.
//
// Parse resolves every referenced name through the registry into
// QueryIntent.FieldPaths. Names the registry does not know stay unresolved;
// rejecting them is the validator's job, not the parser's.
func Parse(raw string) (*QueryIntent, error) {
	var ri rawIntent
	if err := json.Unmarshal([]byte(stripFence(raw)), &ri); err != nil {
		return nil, fmt.Errorf("parse query intent: %w", err)
	}

	q := &QueryIntent{
		IsSatisfiable:      true,
		Reason:             ri.Reason,
		SelectedFields:     []string{},
		SelectedCategories: []string{},
		FieldPaths:         map[string]string{},
		Filters:            []Filter{},
		FiltersMode:        FilterModeAnd,
		Aggregations: Aggregations{
			Averages: []string{},
			Sums:     []string{},
			Counts:   []CountSpec{},
			Lists:    []string{},
			GroupBy:  []string{},
		},
		Sorting: []Sort{},
	}

	if ri.IsSatisfiable != nil {
		q.IsSatisfiable = *ri.IsSatisfiable
	}
	if ri.TimeRange != nil {
		q.TimeRange = *ri.TimeRange
	}
	if strings.EqualFold(ri.FiltersMode, string(FilterModeOr)) {
		q.FiltersMode = FilterModeOr
	}
	if ri.Pagination != nil {
		q.Pagination = *ri.Pagination
		if q.Pagination.Offset < 0 {
			q.Pagination.Offset = 0
		}
		if q.Pagination.Limit < 0 {
			q.Pagination.Limit = 0
		}
	}

	reg := registry.Default()
	resolve := func(name string) string {
		if name == "" {
			return ""
		}
		if path, ok := reg.Path(name); ok {
			q.FieldPaths[name] = path
			return path
		}
		return ""
	}

	for _, f := range ri.Fields {
		if f.IsCategory {
			q.SelectedCategories = append(q.SelectedCategories, f.Name)
			resolve(f.Name)
			// Eagerly resolve every member field so later consumers never
			// re-expand the category.
			for _, member := range reg.FieldsOf(f.Name) {
				resolve(member)
			}
			continue
		}
		q.SelectedFields = append(q.SelectedFields, f.Name)
		resolve(f.Name)
	}

	for _, rf := range ri.Filters {
		q.Filters = append(q.Filters, normalizeFilter(rf, resolve))
	}

	if ri.Aggregations != nil {
		agg := ri.Aggregations
		for _, f := range agg.Averages {
			q.Aggregations.Averages = append(q.Aggregations.Averages, f)
			resolve(f)
		}
		for _, f := range agg.Sums {
			q.Aggregations.Sums = append(q.Aggregations.Sums, f)
			resolve(f)
		}
		for _, f := range agg.Lists {
			q.Aggregations.Lists = append(q.Aggregations.Lists, f)
			resolve(f)
		}
		for _, rc := range agg.Counts {
			c := CountSpec{
				Alias:     rc.Alias,
				Field:     rc.Field,
				FieldPath: resolve(rc.Field),
			}
			if rc.Filter != nil {
				f := normalizeFilter(*rc.Filter, resolve)
				c.Filter = &f
			}
			q.Aggregations.Counts = append(q.Aggregations.Counts, c)
		}
		for _, g := range agg.GroupBy {
			q.Aggregations.GroupBy = append(q.Aggregations.GroupBy, g)
			if !IsPseudoField(g) {
				resolve(g)
			}
		}
	}

	for _, rs := range ri.Sorting {
		q.Sorting = append(q.Sorting, Sort{Field: rs.Field, Order: SortOrder(strings.ToLower(rs.Order))})
		if !IsPseudoField(rs.Field) {
			resolve(rs.Field)
		}
	}

	return q, nil
}

func normalizeFilter(rf rawFilter, resolve func(string) string) Filter {
	return Filter{
		FieldName: rf.Field,
		Operator:  rf.Operator,
		Value:     rf.Value,
		FieldPath: resolve(rf.Field),
	}
}

// stripFence removes an optional ```-fence (with or without a language tag)
// around the JSON body.
func stripFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:] // drop the language tag line
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
