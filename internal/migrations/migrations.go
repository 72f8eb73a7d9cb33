package migrations

import (
	"database/sql"
	_ "embed"

	"github.com/goran-ethernal/TransferCrawler/internal/db"
	"github.com/goran-ethernal/TransferCrawler/internal/logger"
)

//go:embed 001_transfers.sql
var mig001 string

// All returns the schema migrations of the crawler in order.
func All() []db.Migration {
	return []db.Migration{
		{
			ID:  "001_transfers.sql",
			SQL: mig001,
		},
	}
}

// RunMigrations brings the schema of database up to date.
func RunMigrations(log *logger.Logger, database *sql.DB, driver string) error {
	return db.RunMigrationsDB(log, database, driver, All())
}
