// Package store provides the wldstore.Backend implementations the record
// stores persist into:
//   - MemoryBackend: in-process map with a browser-like storage quota
//   - SQLBackend: one table in SQLite (ncruces/go-sqlite3) or PostgreSQL (pgx)
//   - DynamoDBBackend: one partition of a PK/SK DynamoDB table, see schema.go
//   - RetryBackend: retries transient failures of any of the above
package store
