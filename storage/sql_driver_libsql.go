//go:build libsql

package storage

import (
	_ "github.com/tursodatabase/go-libsql"
)

const DefaultSQLDriver = "libsql"
