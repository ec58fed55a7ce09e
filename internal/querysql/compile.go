package querysql

import (
	"fmt"
	"strings"

	"github.com/realjackcrew/leornian-query/internal/intent"
	"github.com/realjackcrew/leornian-query/internal/registry"
)

// TableName is the per-day health log table. The core never assumes more of
// its relational schema than the identity columns and the JSONB payload.
const TableName = "daily_logs"

// Query is a compiled, parameterized SQL statement ready for execution.
type Query struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// Compile turns a validated intent into one parameterized statement.
// The aggregation path is taken whenever any aggregation bucket is
// populated; otherwise plain row retrieval.
//
// Positional parameters are, in order: userID, startDate, endDate, then -
// aggregation path - one value per filtered count carrying a bound literal,
// then one value per top-level filter carrying a bound literal, then - row
// path - limit and offset when positive.
func Compile(q *intent.QueryIntent, userID string) (Query, error) {
	if q == nil {
		return Query{}, fmt.Errorf("cannot compile nil intent")
	}
	if q.HasAggregations() {
		return compileAggregation(q, userID)
	}
	return compileRows(q, userID)
}

// CompileCount builds the secondary COUNT(*) statement for row-retrieval
// results. It reuses only the WHERE clause: pagination parameters are
// deliberately excluded so the count covers the whole match set.
func CompileCount(q *intent.QueryIntent, userID string) (Query, error) {
	if q == nil {
		return Query{}, fmt.Errorf("cannot compile nil intent")
	}
	b := &builder{}
	where, err := b.whereClause(q, userID)
	if err != nil {
		return Query{}, err
	}
	sql := fmt.Sprintf(`SELECT COUNT(*) AS "totalCount" FROM %s WHERE %s`, TableName, where)
	return Query{SQL: sql, Params: b.params}, nil
}

// builder accumulates positional parameters while fragments are assembled.
// Placeholder numbering follows bind order, not text position.
type builder struct {
	params []any
}

func (b *builder) bind(v any) string {
	b.params = append(b.params, v)
	return fmt.Sprintf("$%d", len(b.params))
}

func compileRows(q *intent.QueryIntent, userID string) (Query, error) {
	b := &builder{}

	sel := []string{
		"id",
		"date",
		`user_id AS "userId"`,
		`created_at AS "createdAt"`,
		`updated_at AS "updatedAt"`,
		registry.PayloadColumn,
	}
	for _, f := range q.SelectedFields {
		path, ok := q.FieldPaths[f]
		if !ok {
			return Query{}, fmt.Errorf("no path resolved for field %q", f)
		}
		sel = append(sel, fmt.Sprintf("%s AS %q", path, f))
	}

	where, err := b.whereClause(q, userID)
	if err != nil {
		return Query{}, err
	}

	orderBy := "date DESC"
	if len(q.Sorting) > 0 {
		parts := make([]string, 0, len(q.Sorting))
		for _, s := range q.Sorting {
			expr, err := sortExpr(q, s.Field)
			if err != nil {
				return Query{}, err
			}
			parts = append(parts, expr+" "+strings.ToUpper(string(s.Order)))
		}
		orderBy = strings.Join(parts, ", ")
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		strings.Join(sel, ", "), TableName, where, orderBy)

	if q.Pagination.Limit > 0 {
		sql += " LIMIT " + b.bind(q.Pagination.Limit)
	}
	if q.Pagination.Offset > 0 {
		sql += " OFFSET " + b.bind(q.Pagination.Offset)
	}

	return Query{SQL: sql, Params: b.params}, nil
}

func compileAggregation(q *intent.QueryIntent, userID string) (Query, error) {
	b := &builder{}

	// Identity predicates bind first so userID/start/end are always $1..$3,
	// even though the count literals appear earlier in the statement text.
	baseConds := b.identityConds(q, userID)

	var sel []string
	var groupExprs []string
	for _, g := range q.Aggregations.GroupBy {
		expr, err := groupExpr(q, g)
		if err != nil {
			return Query{}, err
		}
		sel = append(sel, fmt.Sprintf("%s AS %q", expr, g))
		groupExprs = append(groupExprs, expr)
	}

	agg := q.Aggregations
	for _, f := range agg.Averages {
		path, ok := q.FieldPaths[f]
		if !ok {
			return Query{}, fmt.Errorf("no path resolved for average target %q", f)
		}
		sel = append(sel, fmt.Sprintf("AVG((%s)::numeric)::float8 AS %q", path, "avg_"+f))
	}
	for _, f := range agg.Sums {
		path, ok := q.FieldPaths[f]
		if !ok {
			return Query{}, fmt.Errorf("no path resolved for sum target %q", f)
		}
		sel = append(sel, fmt.Sprintf("SUM((%s)::numeric)::float8 AS %q", path, "sum_"+f))
	}
	for _, c := range agg.Counts {
		expr, err := b.countExpr(c)
		if err != nil {
			return Query{}, err
		}
		sel = append(sel, fmt.Sprintf("%s AS %q", expr, countAlias(c)))
	}
	for _, f := range agg.Lists {
		path, ok := q.FieldPaths[f]
		if !ok {
			return Query{}, fmt.Errorf("no path resolved for list target %q", f)
		}
		sel = append(sel, fmt.Sprintf("json_agg(%s) AS %q", path, "list_"+f))
	}

	// Top-level filters bind after any count literals, matching the
	// documented parameter order.
	conds := baseConds
	filterCond, err := b.filterGroup(q)
	if err != nil {
		return Query{}, err
	}
	if filterCond != "" {
		conds = append(conds, filterCond)
	}

	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s GROUP BY %s",
		strings.Join(sel, ", "), TableName,
		strings.Join(conds, " AND "), strings.Join(groupExprs, ", "))

	if len(q.Sorting) > 0 {
		parts := make([]string, 0, len(q.Sorting))
		for _, s := range q.Sorting {
			// Aggregated rows carry no raw columns, so ordering references
			// the projection alias rather than a path expression.
			parts = append(parts, fmt.Sprintf("%q %s", s.Field, strings.ToUpper(string(s.Order))))
		}
		sql += " ORDER BY " + strings.Join(parts, ", ")
	}

	return Query{SQL: sql, Params: b.params}, nil
}

// countExpr renders one count aggregate. A filter turns the count
// conditional: COUNT over a CASE counts only the rows where the condition
// holds, and yields 0 (never NULL) for a group with no qualifying rows.
func (b *builder) countExpr(c intent.CountSpec) (string, error) {
	if c.Filter != nil {
		cond, err := b.condition(*c.Filter)
		if err != nil {
			return "", fmt.Errorf("count %q: %w", countAlias(c), err)
		}
		return fmt.Sprintf("COUNT(CASE WHEN %s THEN 1 END)", cond), nil
	}
	if c.Field == "" || c.Field == intent.WildcardAll || c.FieldPath == "" {
		return "COUNT(*)", nil
	}
	return fmt.Sprintf("COUNT(%s)", c.FieldPath), nil
}

func countAlias(c intent.CountSpec) string {
	if c.Alias != "" {
		return c.Alias
	}
	if c.Field == "" || c.Field == intent.WildcardAll {
		return "count"
	}
	return "count_" + c.Field
}

// identityConds pins every query to the caller and its date window.
func (b *builder) identityConds(q *intent.QueryIntent, userID string) []string {
	return []string{
		"user_id = " + b.bind(userID),
		"date >= " + b.bind(q.TimeRange.StartDate),
		"date <= " + b.bind(q.TimeRange.EndDate),
	}
}

// filterGroup renders the top-level filter set as one parenthesized clause.
// The filter mode governs only the relationship among filters; the group as
// a whole is always AND-ed to the identity predicates.
func (b *builder) filterGroup(q *intent.QueryIntent) (string, error) {
	if len(q.Filters) == 0 {
		return "", nil
	}
	glue := " AND "
	if q.FiltersMode == intent.FilterModeOr {
		glue = " OR "
	}
	parts := make([]string, 0, len(q.Filters))
	for _, f := range q.Filters {
		cond, err := b.condition(f)
		if err != nil {
			return "", err
		}
		parts = append(parts, cond)
	}
	return "(" + strings.Join(parts, glue) + ")", nil
}

func (b *builder) whereClause(q *intent.QueryIntent, userID string) (string, error) {
	conds := b.identityConds(q, userID)
	filterCond, err := b.filterGroup(q)
	if err != nil {
		return "", err
	}
	if filterCond != "" {
		conds = append(conds, filterCond)
	}
	return strings.Join(conds, " AND "), nil
}

// groupExpr maps a group key to its projection expression. Calendar
// pseudo-fields use date-part extraction; real fields use their resolved
// path. Every expression comes from a closed vocabulary.
func groupExpr(q *intent.QueryIntent, g string) (string, error) {
	switch g {
	case intent.PseudoDate:
		return "date", nil
	case intent.PseudoWeekday:
		return "to_char(date, 'FMDay')", nil
	case intent.PseudoISOWeek:
		return "to_char(date, 'IYYY-IW')", nil
	case intent.PseudoMonth:
		return "to_char(date, 'YYYY-MM')", nil
	case intent.PseudoYear:
		return "to_char(date, 'YYYY')", nil
	}
	if path, ok := q.FieldPaths[g]; ok {
		return path, nil
	}
	return "", fmt.Errorf("no path resolved for group key %q", g)
}

// sortExpr maps a row-path sort field to an expression: the date column,
// a calendar projection, or the field's resolved path.
func sortExpr(q *intent.QueryIntent, field string) (string, error) {
	if intent.IsPseudoField(field) {
		return groupExpr(q, field)
	}
	if path, ok := q.FieldPaths[field]; ok {
		return path, nil
	}
	return "", fmt.Errorf("no path resolved for sort field %q", field)
}
