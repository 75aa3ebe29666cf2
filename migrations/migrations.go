// Package migrations embeds the goose SQL migrations applied on server startup.
package migrations

import "embed"

// FS holds the *.sql migration files.
//
//go:embed *.sql
var FS embed.FS
