package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/realjackcrew/leornian-query/internal/querysql"
)

//go:embed schema.sql
var schemaSQL string

// Store wraps a PostgreSQL connection pool over the daily logs table.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to PostgreSQL using the given DSN and verifies the
// connection with a ping. The pool uses pgx defaults; tune via DSN
// parameters (pool_max_conns etc.) if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Close releases the connection pool. Safe to call on a nil or
// already-closed store.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// EnsureSchema creates the daily logs table and its indexes if they do not
// exist. Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Query executes one compiled statement and returns every row as a
// column-name-keyed map. The caller owns shaping; the store only converts
// pgx's column descriptions and values into generic form.
func (s *Store) Query(ctx context.Context, sql string, params []any) ([]map[string]any, error) {
	rows, err := s.pool.Query(ctx, sql, params...)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer rows.Close()

	out, err := collectRows(rows)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func collectRows(rows pgx.Rows) ([]map[string]any, error) {
	fields := rows.FieldDescriptions()
	out := []map[string]any{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}
		row := make(map[string]any, len(fields))
		for i, fd := range fields {
			row[fd.Name] = values[i]
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

// FirstLogDate returns the earliest date the user has a logged record, as an
// ISO date string. The second return value is false when the user has no
// rows at all.
func (s *Store) FirstLogDate(ctx context.Context, userID string) (string, bool, error) {
	var first *time.Time
	err := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT min(date) FROM %s WHERE user_id = $1", querysql.TableName),
		userID).Scan(&first)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query first log date: %w", err)
	}
	if first == nil {
		// min() over zero rows is NULL, not an empty result set.
		return "", false, nil
	}
	return first.Format("2006-01-02"), true, nil
}
