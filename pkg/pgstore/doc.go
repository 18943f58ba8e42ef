// Package pgstore is a PostgreSQL-backed implementation of
// pkg/execution.StateStore, realizing §4.5/§6's keyspace as plain SQL
// tables instead of a Redis-like list/KV store. Grounded on
// albert-saclot-workflow-go-challenge's services/storage/storage.go: the
// same DB/querier interface-for-testability split (satisfied by
// *pgxpool.Pool in production, pgxmock in tests), with each write a single
// INSERT ... ON CONFLICT upsert statement; no explicit transactions are used.
package pgstore
