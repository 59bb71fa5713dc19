package db

import "embed"

// Migrations holds the goose SQL files for the console's own tables.
//
//go:embed migrations/*.sql
var Migrations embed.FS

const MigrationsDir = "migrations"
