package db

import "embed"

// MigrationFS embeds the SQL files from internal/db/migrations so the migrate
// runner works from a single binary.
//
//go:embed migrations/*.sql
var MigrationFS embed.FS
