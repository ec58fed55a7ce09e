// Package harness runs YAML-defined pipeline scenarios: one intent JSON,
// fixture rows, and expectations about the outcome.
//
// Scenarios exercise the whole pipeline - parse, validate, compile, execute
// against an in-memory store, shape - and double as executable documentation
// of end-to-end behavior. Golden files pin the exact SQL a scenario
// compiles to, so unintended SQL changes fail loudly.
package harness
