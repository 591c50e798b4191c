// Package sqlite persists sync checkpoints in a local SQLite database.
//
// The adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. The database
// schema is managed through versioned migrations embedded from the
// migrations/ directory.
//
// By default, the database is stored at ~/.sailtap/data/checkpoints.db.
// All operations are thread-safe through SQLite's own locking in WAL
// mode.
package sqlite
