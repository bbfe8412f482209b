// Package migrations holds the schema of the adaptor database.
//
// Files are named NNN_description.up.sql and are applied in version order
// by the sqlite store; .down.sql files are kept for manual rollback.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
