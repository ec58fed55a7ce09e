// Package store provides PostgreSQL-backed access to the daily wellness logs.
//
// One row per user per day: identity columns plus a JSONB payload holding the
// categorized datapoints. The store deliberately knows nothing about query
// intents; it executes whatever parameterized statement the compiler produced
// and hands rows back as generic maps.
//
// Connections come from a pgxpool.Pool, so the store is safe for concurrent
// use. Every operation takes a context and respects its cancellation.
package store
