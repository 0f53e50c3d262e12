// Package storage persists media records and serves search candidates.
//
// Two backends implement Storage:
//   - SQLiteStorage: the default, a single database file. Built on
//     modernc.org/sqlite, or github.com/mattn/go-sqlite3 with the
//     sqlite_cgo build tag.
//   - PostgresStorage: a shared PostgreSQL database via pgx.
//
// # Schema
//
// One table, media, holds the full record. In SQLite, tags, topics and the
// embedding are JSON text columns and timestamps are Unix nanoseconds; in
// PostgreSQL they are text[], float8[] and timestamptz.
//
// Schema changes are versioned with semantic versions in a schema_version
// table and applied on open.
//
// # Embeddings
//
// Embeddings are read back through vecmath, so a malformed or partially
// corrupt stored vector becomes an empty or shortened vector instead of an
// error. The ranker then scores such items on keyword and recency only.
//
// # Basic Usage
//
//	db, err := storage.Open(ctx, storage.Config{Driver: "sqlite", DSN: "mediasense.db"})
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
//
//	candidates, err := db.ListReady(ctx, ownerID)
package storage
