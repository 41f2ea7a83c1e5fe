package migrations

import "embed"

// Files holds the numbered schema migrations for the profile snapshot store.
// db.OpenSQLite applies them in version order.
//
//go:embed *.sql
var Files embed.FS
