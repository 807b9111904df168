// Package sqlite provides the SQLite implementation of the learning store's
// persistence ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database connection backs three wrapper types:
//
//   - PatternPersister: write-behind target for the pattern arena
//   - IssueLog: append-only hallucination occurrences
//   - Blocklist: fabricated phrases with their safe defaults
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files and
// records its own version in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.folio/data/folio.db
//
// # Thread Safety
//
// All operations are thread-safe. SQLite runs in WAL mode with a busy
// timeout so the write-behind flusher and validator can share the file.
package sqlite
