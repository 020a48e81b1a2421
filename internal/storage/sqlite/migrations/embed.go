package migrations

import "embed"

// FS contains embedded SQLite migrations for local storage.
//
//go:embed *.sql
var FS embed.FS
