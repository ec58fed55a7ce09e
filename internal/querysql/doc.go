// Package querysql compiles a validated query intent into one parameterized
// PostgreSQL statement, and reshapes the raw rows that come back.
//
// Compilation is pure: nothing here touches a database. Two mutually
// exclusive paths exist, chosen by whether any aggregation bucket is
// populated:
//
//   - Row retrieval: identity columns plus one extracted-value projection per
//     selected field, pinned to the user and date range, optionally filtered,
//     sorted, and paginated.
//   - Aggregation: one projection per group key plus one aggregate expression
//     per requested average, sum, count, or list, grouped by the same key
//     expressions.
//
// Safety model: every identifier, path expression, and operator that reaches
// the SQL text comes from a closed vocabulary (the registry's generated paths,
// the operator map, the calendar projections). Free-text values are either
// bound as positional parameters or, for shape-constrained literals (booleans,
// numbers, ISO dates, HH:MM times), inlined in quoted form. CheckQuery is a
// final defense-in-depth gate run immediately before execution.
package querysql
