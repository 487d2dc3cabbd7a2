// Package migrations embeds the controller's SQL schema migrations so the
// binary can migrate its database without the files on disk.
package migrations

import "embed"

// FS holds every *.sql migration at its root. Pass it to
// database.DB.Migrate.
//
//go:embed *.sql
var FS embed.FS
