// Package migrations embeds the SQLite schema into the binary.
package migrations

import (
	"embed"

	"github.com/nerrad567/bioreactor-core/internal/infrastructure/database"
)

//go:embed *.sql
var migrationsFS embed.FS

func init() {
	database.RegisterMigrations(migrationsFS, ".")
}
