// Package dbmigrations exposes embedded SQL migrations for trolley binaries.
package dbmigrations

import "embed"

// Files contains the embedded SQL migrations bundled into trolley binaries.
//
//go:embed *.sql
var Files embed.FS
