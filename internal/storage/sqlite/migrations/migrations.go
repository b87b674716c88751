// Package migrations embeds the SQLite schema in golang-migrate file layout.
package migrations

import "embed"

// FS holds the versioned *.up.sql and *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
