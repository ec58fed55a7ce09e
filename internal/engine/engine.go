package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/realjackcrew/leornian-query/internal/intent"
	"github.com/realjackcrew/leornian-query/internal/querysql"
	"github.com/realjackcrew/leornian-query/internal/registry"
)

// Querier executes one compiled statement. Implemented by *store.Store in
// production and by fakes in tests.
type Querier interface {
	Query(ctx context.Context, sql string, params []any) ([]map[string]any, error)
}

// Config wires an Executor's collaborators. Store and Dates are required;
// the rest default sensibly.
type Config struct {
	Store  Querier
	Dates  intent.FirstLogDateProvider
	Clock  Clock
	Tokens TokenGenerator
	Logger *slog.Logger
}

// Executor is the pipeline facade. Immutable after construction; safe for
// concurrent use.
type Executor struct {
	store  Querier
	dates  intent.FirstLogDateProvider
	clock  Clock
	tokens TokenGenerator
	log    *slog.Logger
	reg    *registry.Registry
}

// New creates an Executor from cfg, filling in a system clock, a UUIDv7
// token generator, and the default slog logger where cfg leaves them nil.
func New(cfg Config) *Executor {
	e := &Executor{
		store:  cfg.Store,
		dates:  cfg.Dates,
		clock:  cfg.Clock,
		tokens: cfg.Tokens,
		log:    cfg.Logger,
		reg:    registry.Default(),
	}
	if e.clock == nil {
		e.clock = SystemClock{}
	}
	if e.tokens == nil {
		e.tokens = UUIDv7Generator{}
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	return e
}

// Options tunes one execution.
type Options struct {
	// IncludeCount adds a secondary unpaginated COUNT(*) for row-retrieval
	// queries. Ignored on the aggregation path, where TotalCount is
	// meaningless.
	IncludeCount bool
}

// Result is the response envelope. Exactly one of the failure fields is
// populated on failure; on success Data or Aggregations carries the payload.
type Result struct {
	Success bool `json:"success"`

	Data         []querysql.Record `json:"data,omitempty"`
	TotalCount   *int              `json:"totalCount,omitempty"`
	Aggregations []map[string]any  `json:"aggregations,omitempty"`

	Warnings []string `json:"warnings,omitempty"`

	// Intent echoes the parsed intent on validation failure so callers can
	// see what the upstream model actually asked for.
	Intent *intent.QueryIntent `json:"intent,omitempty"`

	Error  string `json:"error,omitempty"`
	Reason string `json:"reason,omitempty"`

	ExecutedQuery string `json:"executedQuery,omitempty"`
	QueryParams   []any  `json:"queryParams,omitempty"`

	ExecutionID string `json:"executionId"`
}

// ExecuteFromJSON runs the whole pipeline on raw intent JSON.
func (e *Executor) ExecuteFromJSON(ctx context.Context, raw, userID string, opts Options) *Result {
	token := e.tokens.Generate()
	log := e.log.With("executionId", token, "userId", userID)

	q, err := intent.Parse(raw)
	if err != nil {
		log.Error("intent parsing failed", "error", err)
		return &Result{Success: false, Error: err.Error(), ExecutionID: token}
	}
	return e.execute(ctx, q, userID, opts, token, log)
}

// ExecuteFromIntent runs the pipeline on an already-parsed intent. The
// intent must come from Parse: validation and compilation rely on its
// resolved field paths and non-nil collections.
func (e *Executor) ExecuteFromIntent(ctx context.Context, q *intent.QueryIntent, userID string, opts Options) *Result {
	token := e.tokens.Generate()
	log := e.log.With("executionId", token, "userId", userID)
	return e.execute(ctx, q, userID, opts, token, log)
}

func (e *Executor) execute(ctx context.Context, q *intent.QueryIntent, userID string, opts Options, token string, log *slog.Logger) *Result {
	validation := intent.Validate(ctx, q, userID, e.dates, e.clock.Today())

	if !q.IsSatisfiable && validation.IsValid {
		// Recognized terminal state: the question cannot be answered from
		// collected data. Not an error.
		log.Info("intent not satisfiable", "reason", q.Reason)
		zero := 0
		return &Result{
			Success:     true,
			Data:        []querysql.Record{},
			TotalCount:  &zero,
			Reason:      q.Reason,
			ExecutionID: token,
		}
	}

	if !validation.IsValid {
		log.Info("intent validation failed", "errors", validation.Errors)
		return &Result{
			Success:     false,
			Intent:      q,
			Error:       "invalid query intent: " + strings.Join(validation.Errors, "; "),
			Warnings:    validation.Warnings,
			ExecutionID: token,
		}
	}

	compiled, err := querysql.Compile(q, userID)
	if err != nil {
		log.Error("query compilation failed", "error", err)
		return &Result{Success: false, Intent: q, Error: err.Error(),
			Warnings: validation.Warnings, ExecutionID: token}
	}
	if err := querysql.CheckQuery(compiled); err != nil {
		log.Error("compiled query rejected", "error", err, "sql", compiled.SQL)
		return &Result{Success: false, Intent: q, Error: err.Error(),
			Warnings: validation.Warnings, ExecutionID: token}
	}

	log.Debug("executing query", "sql", compiled.SQL, "params", compiled.Params)

	rows, err := e.store.Query(ctx, compiled.SQL, compiled.Params)
	if err != nil {
		// The statement and its parameters go to the log, never to the
		// caller: the response must not disclose SQL structure.
		log.Error("query execution failed", "error", err,
			"sql", compiled.SQL, "params", compiled.Params)
		return &Result{Success: false, Intent: q,
			Error: "query execution failed: " + err.Error(),
			Warnings: validation.Warnings, ExecutionID: token}
	}

	res := &Result{
		Success:       true,
		Warnings:      validation.Warnings,
		ExecutedQuery: compiled.SQL,
		QueryParams:   compiled.Params,
		ExecutionID:   token,
	}

	if q.HasAggregations() {
		res.Aggregations = querysql.ShapeAggregations(rows)
		log.Info("aggregation query executed", "groups", len(res.Aggregations))
		return res
	}

	res.Data = querysql.ShapeRows(q, e.reg, rows)
	if opts.IncludeCount {
		if err := e.attachCount(ctx, q, userID, res, log); err != nil {
			res.Success = false
			res.Error = "query execution failed: " + err.Error()
			return res
		}
	}
	log.Info("row query executed", "rows", len(res.Data))
	return res
}

// attachCount runs the secondary unpaginated count for row-retrieval
// results and stores it on res.
func (e *Executor) attachCount(ctx context.Context, q *intent.QueryIntent, userID string, res *Result, log *slog.Logger) error {
	countQ, err := querysql.CompileCount(q, userID)
	if err != nil {
		return err
	}
	if err := querysql.CheckQuery(countQ); err != nil {
		return err
	}
	rows, err := e.store.Query(ctx, countQ.SQL, countQ.Params)
	if err != nil {
		log.Error("count query failed", "error", err, "sql", countQ.SQL)
		return err
	}
	total := 0
	if len(rows) > 0 {
		switch v := rows[0]["totalCount"].(type) {
		case int64:
			total = int(v)
		case int:
			total = v
		case float64:
			total = int(v)
		}
	}
	res.TotalCount = &total
	return nil
}
