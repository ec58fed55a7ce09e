package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realjackcrew/leornian-query/internal/intent"
)

const (
	engineUser  = "user-99"
	engineToday = "2025-06-15"
)

// fakeStore returns canned rows and records every executed statement.
type fakeStore struct {
	rows    []map[string]any
	err     error
	queries []string
	params  [][]any
}

func (f *fakeStore) Query(_ context.Context, sql string, params []any) ([]map[string]any, error) {
	f.queries = append(f.queries, sql)
	f.params = append(f.params, params)
	if f.err != nil {
		return nil, f.err
	}
	return f.rows, nil
}

type fakeDates struct {
	first string
}

func (f fakeDates) FirstLogDate(context.Context, string) (string, bool, error) {
	if f.first == "" {
		return "", false, nil
	}
	return f.first, true, nil
}

func newTestExecutor(st *fakeStore) *Executor {
	return New(Config{
		Store:  st,
		Dates:  fakeDates{first: "2025-01-01"},
		Clock:  FixedClock(engineToday),
		Tokens: NewFixedGenerator("exec-1", "exec-2"),
	})
}

const rowIntentJSON = `{
	"timeRange": {"startDate": "2025-05-01", "endDate": "2025-05-31"},
	"fields": [{"name": "totalSleepHours"}]
}`

func TestExecuteFromJSON_RowQuery(t *testing.T) {
	st := &fakeStore{rows: []map[string]any{{
		"id":   int64(1),
		"date": time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		"data": map[string]any{"sleep": map[string]any{"totalSleepHours": 7.5}},
	}}}
	e := newTestExecutor(st)

	res := e.ExecuteFromJSON(context.Background(), rowIntentJSON, engineUser, Options{})

	require.True(t, res.Success, res.Error)
	assert.Equal(t, "exec-1", res.ExecutionID)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "2025-05-10", res.Data[0]["date"])
	assert.Equal(t, 7.5, res.Data[0]["totalSleepHours"])
	assert.Nil(t, res.TotalCount)
	assert.Contains(t, res.ExecutedQuery, "SELECT")
	assert.Equal(t, []any{engineUser, "2025-05-01", "2025-05-31"}, res.QueryParams)

	require.Len(t, st.queries, 1)
}

func TestExecuteFromJSON_IncludeCount(t *testing.T) {
	st := &fakeStore{rows: []map[string]any{{"totalCount": int64(42)}}}
	e := newTestExecutor(st)

	res := e.ExecuteFromJSON(context.Background(), rowIntentJSON, engineUser, Options{IncludeCount: true})

	require.True(t, res.Success, res.Error)
	require.NotNil(t, res.TotalCount)
	assert.Equal(t, 42, *res.TotalCount)
	require.Len(t, st.queries, 2)
	assert.Contains(t, st.queries[1], `COUNT(*) AS "totalCount"`)
}

func TestExecuteFromJSON_Aggregation(t *testing.T) {
	st := &fakeStore{rows: []map[string]any{
		{"weekday": "Monday", "avg_totalSleepHours": 7.1},
	}}
	e := newTestExecutor(st)

	res := e.ExecuteFromJSON(context.Background(), `{
		"timeRange": {"startDate": "2025-05-01", "endDate": "2025-05-31"},
		"fields": [{"name": "totalSleepHours"}],
		"aggregations": {"averages": ["totalSleepHours"], "groupBy": ["weekday"]}
	}`, engineUser, Options{IncludeCount: true})

	require.True(t, res.Success, res.Error)
	require.Len(t, res.Aggregations, 1)
	assert.Equal(t, 7.1, res.Aggregations[0]["avg_totalSleepHours"])
	assert.Nil(t, res.Data)
	assert.Nil(t, res.TotalCount, "IncludeCount is ignored on the aggregation path")
	require.Len(t, st.queries, 1)
}

func TestExecuteFromJSON_ParseFailure(t *testing.T) {
	st := &fakeStore{}
	e := newTestExecutor(st)

	res := e.ExecuteFromJSON(context.Background(), `{"fields": [`, engineUser, Options{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "parse query intent")
	assert.Equal(t, "exec-1", res.ExecutionID)
	assert.Empty(t, st.queries, "nothing executes on a parse failure")
}

func TestExecuteFromJSON_Unsatisfiable(t *testing.T) {
	st := &fakeStore{}
	e := newTestExecutor(st)

	res := e.ExecuteFromJSON(context.Background(),
		`{"isSatisfiable": false, "reason": "blood pressure is not tracked"}`,
		engineUser, Options{})

	assert.True(t, res.Success, "unsatisfiable is a recognized outcome, not an error")
	assert.Equal(t, "blood pressure is not tracked", res.Reason)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	require.NotNil(t, res.TotalCount)
	assert.Equal(t, 0, *res.TotalCount)
	assert.Empty(t, st.queries)
}

func TestExecuteFromJSON_ValidationFailure(t *testing.T) {
	st := &fakeStore{}
	e := newTestExecutor(st)

	res := e.ExecuteFromJSON(context.Background(), `{
		"timeRange": {"startDate": "2025-05-01", "endDate": "2025-05-31"},
		"fields": [{"name": "shoeSize"}]
	}`, engineUser, Options{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "invalid query intent")
	assert.Contains(t, res.Error, "shoeSize")
	require.NotNil(t, res.Intent, "failed validation echoes the parsed intent")
	assert.Empty(t, st.queries)
}

func TestExecuteFromJSON_ClampWarningsSurface(t *testing.T) {
	st := &fakeStore{}
	e := newTestExecutor(st)

	res := e.ExecuteFromJSON(context.Background(), `{
		"timeRange": {"startDate": "2024-01-01", "endDate": "2025-12-31"},
		"fields": [{"name": "totalSleepHours"}]
	}`, engineUser, Options{})

	require.True(t, res.Success, res.Error)
	require.Len(t, res.Warnings, 2)
	// The clamped window is what actually executed.
	assert.Equal(t, []any{engineUser, "2025-01-01", engineToday}, res.QueryParams)
}

func TestExecuteFromJSON_ExecutionError(t *testing.T) {
	st := &fakeStore{err: errors.New("connection refused")}
	e := newTestExecutor(st)

	res := e.ExecuteFromJSON(context.Background(), rowIntentJSON, engineUser, Options{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "query execution failed")
	assert.Empty(t, res.ExecutedQuery, "failed executions do not disclose SQL")
}

func TestExecuteFromIntent(t *testing.T) {
	st := &fakeStore{rows: []map[string]any{}}
	e := newTestExecutor(st)

	q, err := intent.Parse(rowIntentJSON)
	require.NoError(t, err)

	res := e.ExecuteFromIntent(context.Background(), q, engineUser, Options{})
	require.True(t, res.Success, res.Error)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
}

func TestNew_Defaults(t *testing.T) {
	e := New(Config{Store: &fakeStore{}, Dates: fakeDates{}})
	assert.NotNil(t, e.clock)
	assert.NotNil(t, e.tokens)
	assert.NotNil(t, e.log)
}
