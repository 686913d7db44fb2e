// Package migrations embeds the SQL schema migrations of the run history.
package migrations

import "embed"

// FS holds the *.up.sql migrations at its root, ready for
// (*database.DB).Migrate.
//
//go:embed *.sql
var FS embed.FS
