// Package engine runs the full query pipeline: parse raw intent JSON,
// validate it against the caller's data, compile to SQL, execute, and shape
// the rows into the response envelope.
//
// The executor never panics on bad input and never returns a Go error to the
// caller: every outcome - including parse failures and database errors - is
// folded into the Result envelope so the HTTP layer can serialize it
// directly.
//
// Thread-safety: an Executor is immutable after construction and safe for
// concurrent use. Each execution is independent; correlation happens through
// the per-execution token.
package engine
