package migrations

import "embed"

// FS contains the embedded Postgres migrations for the remote store.
//
//go:embed *.sql
var FS embed.FS
