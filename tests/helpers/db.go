package helpers

import (
	"context"
	"database/sql"
	"path"
	"testing"

	"github.com/goran-ethernal/TransferCrawler/internal/db"
	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/goran-ethernal/TransferCrawler/internal/migrations"
	"github.com/goran-ethernal/TransferCrawler/pkg/config"
	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new temporary, migrated SQLite database for testing purposes
func NewTestDB(t *testing.T, dbName string) *sql.DB {
	t.Helper()

	dbConfig := config.DatabaseConfig{
		Driver: config.DriverSQLite,
		Path:   path.Join(t.TempDir(), dbName),
	}
	dbConfig.ApplyDefaults()

	database, err := db.NewDBFromConfig(context.Background(), dbConfig)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })

	require.NoError(t, migrations.RunMigrations(logger.NewNopLogger(), database, config.DriverSQLite))

	return database
}

// WatchAddress inserts or updates a row of the watch list.
func WatchAddress(t *testing.T, database *sql.DB, address string, watching bool) {
	t.Helper()

	_, err := database.Exec(
		`INSERT INTO watched_addresses (address, watching) VALUES (?, ?)
		 ON CONFLICT (address) DO UPDATE SET watching = excluded.watching`,
		address, watching)
	require.NoError(t, err)
}
