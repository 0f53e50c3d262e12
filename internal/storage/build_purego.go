//go:build !sqlite_cgo

package storage

// Default build. Uses the pure Go SQLite translation, no C compiler needed.
//
//   CGO_ENABLED=0 go build ./...

import (
	_ "modernc.org/sqlite"
)

const (
	// DriverName is the database/sql driver registered for SQLite
	DriverName = "sqlite"

	// BuildMode describes the current build configuration
	BuildMode = "purego"
)
