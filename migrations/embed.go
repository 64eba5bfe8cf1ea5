// Package migrations embeds the SQL migrations applied by cmd/migrate.
package migrations

import "embed"

// FS holds the *.up.sql / *.down.sql files.
//
//go:embed *.sql
var FS embed.FS
