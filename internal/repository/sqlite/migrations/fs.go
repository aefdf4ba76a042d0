// Package migrations provisions the SQLite schema from embedded SQL files.
package migrations

import "embed"

// FS holds the schema files, applied in lexical order.
//
//go:embed *.sql
var FS embed.FS
