// Package store executes compiled commands against SQLite.
//
// It is the execution collaborator of the query builder: the builder hands
// it SQL text plus an ordered parameter list through CreateCommand, and
// reads results back through the Command interface. Nothing in this package
// knows about entities or expressions.
//
// # Drivers
//
//   - "sqlite3": github.com/mattn/go-sqlite3 (cgo, default)
//   - "sqlite": modernc.org/sqlite (pure Go)
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout: Wait for locks (5 seconds unless configured)
//   - foreign_keys=ON: Enforce referential integrity
//   - A single pooled connection: SQLite allows one writer at a time
//
// # Statement Cache
//
// Read statements are prepared once and reused by SQL text. Any statement
// that writes or changes the schema (insert, update, delete, replace,
// create, alter, drop) clears the cache before it runs.
package store
