package postgres

import "embed"

// MigrationFS embeds the SQL migrations applied by the migrate runner
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
