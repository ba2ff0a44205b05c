//go:build !libsql

package storage

import (
	_ "github.com/mattn/go-sqlite3"
)

// DefaultSQLDriver is the database/sql driver linked into this build.
// go-sqlite3 and go-libsql both embed SQLite, so only one is linked at a time.
const DefaultSQLDriver = "sqlite3"
