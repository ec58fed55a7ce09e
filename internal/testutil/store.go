// Package testutil provides in-memory stand-ins for the database-backed
// collaborators, so pipeline tests run without PostgreSQL.
package testutil

import (
	"context"
	"sync"
)

// FixtureStore implements engine.Querier over canned rows. It records every
// executed statement so tests can assert on what actually ran.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixtureStore struct {
	mu      sync.Mutex
	rows    []map[string]any
	err     error
	queries []ExecutedQuery
}

// ExecutedQuery is one recorded statement.
type ExecutedQuery struct {
	SQL    string
	Params []any
}

// NewFixtureStore creates a store returning the given rows for every query.
func NewFixtureStore(rows []map[string]any) *FixtureStore {
	return &FixtureStore{rows: rows}
}

// Fail makes every subsequent query return err.
func (s *FixtureStore) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *FixtureStore) Query(_ context.Context, sql string, params []any) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queries = append(s.queries, ExecutedQuery{SQL: sql, Params: params})
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

// Executed returns a copy of every recorded statement, in execution order.
func (s *FixtureStore) Executed() []ExecutedQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ExecutedQuery, len(s.queries))
	copy(out, s.queries)
	return out
}
