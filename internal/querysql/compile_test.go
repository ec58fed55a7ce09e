package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realjackcrew/leornian-query/internal/intent"
)

const testUser = "user-42"

func baseIntent() *intent.QueryIntent {
	return &intent.QueryIntent{
		IsSatisfiable: true,
		TimeRange:     intent.TimeRange{StartDate: "2025-01-01", EndDate: "2025-01-31"},
		SelectedFields: []string{
			"totalSleepHours",
		},
		SelectedCategories: []string{},
		FieldPaths: map[string]string{
			"totalSleepHours": "data->'sleep'->>'totalSleepHours'",
		},
		Filters:     []intent.Filter{},
		FiltersMode: intent.FilterModeAnd,
		Aggregations: intent.Aggregations{
			Averages: []string{},
			Sums:     []string{},
			Counts:   []intent.CountSpec{},
			Lists:    []string{},
			GroupBy:  []string{},
		},
		Sorting: []intent.Sort{},
	}
}

func TestCompile_RowRetrieval(t *testing.T) {
	q := baseIntent()

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT id, date, user_id AS "userId", created_at AS "createdAt", updated_at AS "updatedAt", data, `+
			`data->'sleep'->>'totalSleepHours' AS "totalSleepHours" `+
			`FROM daily_logs WHERE user_id = $1 AND date >= $2 AND date <= $3 ORDER BY date DESC`,
		got.SQL)
	assert.Equal(t, []any{testUser, "2025-01-01", "2025-01-31"}, got.Params)
}

func TestCompile_RowRetrievalPagination(t *testing.T) {
	q := baseIntent()
	q.Pagination = intent.Pagination{Limit: 20, Offset: 40}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL, "LIMIT $4 OFFSET $5")
	assert.Equal(t, []any{testUser, "2025-01-01", "2025-01-31", 20, 40}, got.Params)
}

func TestCompile_ZeroPaginationOmitted(t *testing.T) {
	q := baseIntent()
	q.Pagination = intent.Pagination{}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.NotContains(t, got.SQL, "LIMIT")
	assert.NotContains(t, got.SQL, "OFFSET")
	assert.Len(t, got.Params, 3)
}

func TestCompile_StringFilterBindsParameter(t *testing.T) {
	q := baseIntent()
	q.SelectedFields = append(q.SelectedFields, "exerciseType")
	q.FieldPaths["exerciseType"] = "data->'activity'->>'exerciseType'"
	q.Filters = []intent.Filter{
		{FieldName: "exerciseType", Operator: intent.OpEq, Value: "running",
			FieldPath: "data->'activity'->>'exerciseType'"},
	}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.NotContains(t, got.SQL, "running")
	assert.Contains(t, got.SQL, `(data->'activity'->>'exerciseType' = $4)`)
	assert.Equal(t, []any{testUser, "2025-01-01", "2025-01-31", "running"}, got.Params)
}

func TestCompile_FilterModeOr(t *testing.T) {
	q := baseIntent()
	q.SelectedFields = []string{"exerciseType", "symptoms"}
	q.FieldPaths["exerciseType"] = "data->'activity'->>'exerciseType'"
	q.FieldPaths["symptoms"] = "data->'health'->>'symptoms'"
	q.FiltersMode = intent.FilterModeOr
	q.Filters = []intent.Filter{
		{FieldName: "exerciseType", Operator: intent.OpEq, Value: "running",
			FieldPath: "data->'activity'->>'exerciseType'"},
		{FieldName: "symptoms", Operator: intent.OpNe, Value: "headache",
			FieldPath: "data->'health'->>'symptoms'"},
	}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL, " OR ")
	assert.NotContains(t, got.SQL, "= $4 AND")
	// The filter group is parenthesized so OR never leaks into the
	// identity predicates.
	assert.Contains(t, got.SQL, "date <= $3 AND (")
	assert.Equal(t, []any{testUser, "2025-01-01", "2025-01-31", "running", "headache"}, got.Params)
}

func TestCompile_NumericFilterInlinesCastLiteral(t *testing.T) {
	q := baseIntent()
	q.Filters = []intent.Filter{
		{FieldName: "totalSleepHours", Operator: intent.OpGte, Value: float64(7.5),
			FieldPath: "data->'sleep'->>'totalSleepHours'"},
	}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL, `(data->'sleep'->>'totalSleepHours')::numeric >= '7.5'`)
	assert.Len(t, got.Params, 3)
}

func TestCompile_BooleanAndDateFiltersInline(t *testing.T) {
	q := baseIntent()
	q.SelectedFields = []string{"exercisedToday", "asleepTime"}
	q.FieldPaths["exercisedToday"] = "data->'activity'->>'exercisedToday'"
	q.FieldPaths["asleepTime"] = "data->'sleep'->>'asleepTime'"
	q.Filters = []intent.Filter{
		{FieldName: "exercisedToday", Operator: intent.OpEq, Value: true,
			FieldPath: "data->'activity'->>'exercisedToday'"},
		{FieldName: "asleepTime", Operator: intent.OpLt, Value: "23:30",
			FieldPath: "data->'sleep'->>'asleepTime'"},
	}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL, `data->'activity'->>'exercisedToday' = 'true'`)
	assert.Contains(t, got.SQL, `data->'sleep'->>'asleepTime' < '23:30'`)
	assert.Len(t, got.Params, 3, "shape-constrained literals must not bind parameters")
}

func TestCompile_FieldNameEchoGuard(t *testing.T) {
	// The LLM sometimes echoes the field name where a value belongs. That
	// comparison must become always-false, never match-everything.
	q := baseIntent()
	q.Filters = []intent.Filter{
		{FieldName: "totalSleepHours", Operator: intent.OpEq, Value: "totalSleepHours",
			FieldPath: "data->'sleep'->>'totalSleepHours'"},
	}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL, "(1 = 0)")
	assert.Len(t, got.Params, 3)
}

func TestCompile_SortingOverridesDefaultOrder(t *testing.T) {
	q := baseIntent()
	q.Sorting = []intent.Sort{{Field: "totalSleepHours", Order: intent.SortAsc}}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL, "ORDER BY data->'sleep'->>'totalSleepHours' ASC")
	assert.NotContains(t, got.SQL, "date DESC")
}

func TestCompile_AggregationAverage(t *testing.T) {
	q := baseIntent()
	q.Aggregations.Averages = []string{"totalSleepHours"}
	q.Aggregations.GroupBy = []string{intent.PseudoWeekday}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT to_char(date, 'FMDay') AS "weekday", `+
			`AVG((data->'sleep'->>'totalSleepHours')::numeric)::float8 AS "avg_totalSleepHours" `+
			`FROM daily_logs WHERE user_id = $1 AND date >= $2 AND date <= $3 `+
			`GROUP BY to_char(date, 'FMDay')`,
		got.SQL)
	assert.Equal(t, []any{testUser, "2025-01-01", "2025-01-31"}, got.Params)
}

func TestCompile_AggregationAllBuckets(t *testing.T) {
	q := baseIntent()
	q.SelectedFields = []string{"totalSleepHours", "stepsTakenThousands", "moodScore"}
	q.FieldPaths["stepsTakenThousands"] = "data->'activity'->>'stepsTakenThousands'"
	q.FieldPaths["moodScore"] = "data->'mind'->>'moodScore'"
	q.Aggregations.Averages = []string{"totalSleepHours"}
	q.Aggregations.Sums = []string{"stepsTakenThousands"}
	q.Aggregations.Counts = []intent.CountSpec{{Field: intent.WildcardAll, Alias: "days"}}
	q.Aggregations.Lists = []string{"moodScore"}
	q.Aggregations.GroupBy = []string{intent.PseudoMonth}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL, `AVG((data->'sleep'->>'totalSleepHours')::numeric)::float8 AS "avg_totalSleepHours"`)
	assert.Contains(t, got.SQL, `SUM((data->'activity'->>'stepsTakenThousands')::numeric)::float8 AS "sum_stepsTakenThousands"`)
	assert.Contains(t, got.SQL, `COUNT(*) AS "days"`)
	assert.Contains(t, got.SQL, `json_agg(data->'mind'->>'moodScore') AS "list_moodScore"`)
	assert.Contains(t, got.SQL, `to_char(date, 'YYYY-MM') AS "month"`)
	assert.Contains(t, got.SQL, `GROUP BY to_char(date, 'YYYY-MM')`)
}

func TestCompile_FilteredCountUsesCase(t *testing.T) {
	q := baseIntent()
	q.SelectedFields = []string{"exercisedToday"}
	q.FieldPaths["exercisedToday"] = "data->'activity'->>'exercisedToday'"
	q.Aggregations.Counts = []intent.CountSpec{{
		Alias: "exerciseDays",
		Field: "exercisedToday",
		Filter: &intent.Filter{
			FieldName: "exercisedToday", Operator: intent.OpEq, Value: true,
			FieldPath: "data->'activity'->>'exercisedToday'",
		},
	}}
	q.Aggregations.GroupBy = []string{intent.PseudoISOWeek}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL,
		`COUNT(CASE WHEN data->'activity'->>'exercisedToday' = 'true' THEN 1 END) AS "exerciseDays"`)
	assert.Contains(t, got.SQL, `to_char(date, 'IYYY-IW')`)
}

func TestCompile_AggregationParamOrder(t *testing.T) {
	// Identity params stay $1..$3 even though a count's bound literal
	// appears earlier in the statement text than the WHERE clause.
	q := baseIntent()
	q.SelectedFields = []string{"exerciseType", "symptoms"}
	q.FieldPaths["exerciseType"] = "data->'activity'->>'exerciseType'"
	q.FieldPaths["symptoms"] = "data->'health'->>'symptoms'"
	q.Aggregations.Counts = []intent.CountSpec{{
		Alias: "runs",
		Field: "exerciseType",
		Filter: &intent.Filter{
			FieldName: "exerciseType", Operator: intent.OpEq, Value: "running",
			FieldPath: "data->'activity'->>'exerciseType'",
		},
	}}
	q.Aggregations.GroupBy = []string{intent.PseudoDate}
	q.Filters = []intent.Filter{
		{FieldName: "symptoms", Operator: intent.OpNe, Value: "migraine",
			FieldPath: "data->'health'->>'symptoms'"},
	}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL, "user_id = $1")
	assert.Contains(t, got.SQL, "date >= $2")
	assert.Contains(t, got.SQL, "date <= $3")
	assert.Contains(t, got.SQL, `exerciseType' = $4`)
	assert.Contains(t, got.SQL, `symptoms' != $5`)
	assert.Equal(t, []any{testUser, "2025-01-01", "2025-01-31", "running", "migraine"}, got.Params)
}

func TestCompile_AggregationSortUsesAlias(t *testing.T) {
	q := baseIntent()
	q.Aggregations.Averages = []string{"totalSleepHours"}
	q.Aggregations.GroupBy = []string{intent.PseudoWeekday}
	q.Sorting = []intent.Sort{{Field: "avg_totalSleepHours", Order: intent.SortDesc}}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL, `ORDER BY "avg_totalSleepHours" DESC`)
}

func TestCompile_GroupByRealField(t *testing.T) {
	q := baseIntent()
	q.SelectedFields = []string{"exerciseType", "stepsTakenThousands"}
	q.FieldPaths["exerciseType"] = "data->'activity'->>'exerciseType'"
	q.FieldPaths["stepsTakenThousands"] = "data->'activity'->>'stepsTakenThousands'"
	q.Aggregations.Averages = []string{"stepsTakenThousands"}
	q.Aggregations.GroupBy = []string{"exerciseType"}

	got, err := Compile(q, testUser)
	require.NoError(t, err)

	assert.Contains(t, got.SQL, `data->'activity'->>'exerciseType' AS "exerciseType"`)
	assert.Contains(t, got.SQL, `GROUP BY data->'activity'->>'exerciseType'`)
}

func TestCompile_MissingPathIsError(t *testing.T) {
	q := baseIntent()
	q.SelectedFields = []string{"notInRegistry"}

	_, err := Compile(q, testUser)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "notInRegistry")
}

func TestCompile_NilIntent(t *testing.T) {
	_, err := Compile(nil, testUser)
	assert.Error(t, err)
}

func TestCompileCount(t *testing.T) {
	q := baseIntent()
	q.Pagination = intent.Pagination{Limit: 10, Offset: 5}
	q.Filters = []intent.Filter{
		{FieldName: "totalSleepHours", Operator: intent.OpGt, Value: float64(6),
			FieldPath: "data->'sleep'->>'totalSleepHours'"},
	}

	got, err := CompileCount(q, testUser)
	require.NoError(t, err)

	assert.Equal(t,
		`SELECT COUNT(*) AS "totalCount" FROM daily_logs WHERE user_id = $1 AND date >= $2 AND date <= $3 `+
			`AND ((data->'sleep'->>'totalSleepHours')::numeric > '6')`,
		got.SQL)
	// Pagination must not leak into the count.
	assert.Equal(t, []any{testUser, "2025-01-01", "2025-01-31"}, got.Params)
}

func TestCompile_EveryQueryPassesSafetyGate(t *testing.T) {
	intents := map[string]*intent.QueryIntent{
		"plain rows": baseIntent(),
	}

	paginated := baseIntent()
	paginated.Pagination = intent.Pagination{Limit: 5, Offset: 10}
	intents["paginated rows"] = paginated

	filtered := baseIntent()
	filtered.Filters = []intent.Filter{
		{FieldName: "totalSleepHours", Operator: intent.OpLte, Value: float64(9),
			FieldPath: "data->'sleep'->>'totalSleepHours'"},
	}
	intents["filtered rows"] = filtered

	agg := baseIntent()
	agg.Aggregations.Averages = []string{"totalSleepHours"}
	agg.Aggregations.GroupBy = []string{intent.PseudoWeekday}
	intents["aggregation"] = agg

	for name, q := range intents {
		t.Run(name, func(t *testing.T) {
			got, err := Compile(q, testUser)
			require.NoError(t, err)
			assert.NoError(t, CheckQuery(got))
		})
	}
}
