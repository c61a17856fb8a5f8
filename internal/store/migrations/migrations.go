// Package migrations embeds the goose SQL migration files for the
// credential store, mirroring internal/db/migrations (la2go).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
