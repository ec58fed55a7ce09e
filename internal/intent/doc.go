// Package intent defines the normalized query intent - the central data
// structure of the query pipeline - together with the parser that produces
// it from raw LLM output and the validator that decides whether it is safe
// to execute for a specific user.
//
// A QueryIntent is constructed fresh per request, lives for the duration of
// one query, and is never persisted. After validation it is treated as
// immutable; the only in-place mutations are the two date-clamping
// corrections the validator applies.
//
// The pipeline is strictly one-directional:
//
//	raw JSON -> Parse -> *QueryIntent -> Validate -> querysql.Compile
//
// Parse is purely structural: it decodes, defaults, and resolves names to
// registry paths, but performs no business checks. Validate owns every
// business rule, most importantly the available-fields whitelist: a field
// may only appear in filters, sorting, or aggregations if it was selected
// (directly or via a category) or is one of the calendar pseudo-fields.
// That whitelist is what stands between free-text user input and the SQL
// the builder synthesizes.
package intent
