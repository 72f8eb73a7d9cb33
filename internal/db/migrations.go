package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/goran-ethernal/TransferCrawler/pkg/config"
	migrate "github.com/rubenv/sql-migrate"
)

const (
	UpDownSeparator     = "-- +migrate Up"
	NoLimitMigrations   = 0 // indicate that there is no limit on the number of migrations to run
	migrationDirections = 2

	// Placeholders substituted with a driver specific column type.
	IntegerAmountType = "/*integer_amount*/"
	DecimalAmountType = "/*decimal_amount*/"
)

// dialectTypes keeps amounts exact on both drivers: Postgres NUMERIC holds
// any uint256, SQLite stores the decimal string.
var dialectTypes = map[string]map[string]string{
	config.DriverPostgres: {
		IntegerAmountType: "NUMERIC(78, 0)",
		DecimalAmountType: "NUMERIC",
	},
	config.DriverSQLite: {
		IntegerAmountType: "TEXT",
		DecimalAmountType: "TEXT",
	},
}

type Migration struct {
	ID  string
	SQL string
}

// RunMigrationsDB will execute pending up migrations.
func RunMigrationsDB(logger *logger.Logger, db *sql.DB, driver string, migrationsParam []Migration) error {
	return RunMigrationsDBExtended(logger, db, driver, migrationsParam, migrate.Up, NoLimitMigrations)
}

// RunMigrationsDBExtended is an extended version of RunMigrationsDB that allows
// dir: can be migrate.Up or migrate.Down
// maxMigrations: Will apply at most `max` migrations. Pass 0 for no limit (or use Exec)
func RunMigrationsDBExtended(logger *logger.Logger,
	db *sql.DB,
	driver string,
	migrationsParam []Migration,
	dir migrate.MigrationDirection,
	maxMigrations int) error {
	types, ok := dialectTypes[driver]
	if !ok {
		return fmt.Errorf("unsupported database driver %q", driver)
	}

	migs := &migrate.MemoryMigrationSource{Migrations: []*migrate.Migration{}}

	for _, m := range migrationsParam {
		sqlText := m.SQL
		for placeholder, columnType := range types {
			sqlText = strings.ReplaceAll(sqlText, placeholder, columnType)
		}

		splitted := strings.Split(sqlText, UpDownSeparator)
		if len(splitted) < migrationDirections {
			return fmt.Errorf("migration %s missing '-- +migrate Up' separator", m.ID)
		}

		// splitted[0] = Down section (may include "-- +migrate Down" marker)
		// splitted[1] = Up section
		downSQL := splitted[0]
		upSQL := strings.TrimSpace(splitted[1])

		downMarker := "-- +migrate Down"
		if idx := strings.Index(downSQL, downMarker); idx != -1 {
			downSQL = strings.TrimSpace(downSQL[idx+len(downMarker):])
		} else {
			downSQL = strings.TrimSpace(downSQL)
		}

		migs.Migrations = append(migs.Migrations, &migrate.Migration{
			Id:   m.ID,
			Up:   []string{upSQL},
			Down: []string{downSQL},
		})
	}

	ids := make([]string, 0, len(migs.Migrations))
	for _, m := range migs.Migrations {
		ids = append(ids, m.Id)
	}
	listMigrations := strings.Join(ids, ", ")

	logger.Debugf("running migrations: (max %d/%d) migrations: %s", maxMigrations,
		len(migs.Migrations),
		listMigrations)
	nMigrations, err := migrate.ExecMax(db, driver, migs, dir, maxMigrations)
	if err != nil {
		return fmt.Errorf("error executing migration (max %d/%d) migrations: %s . Err: %w",
			maxMigrations, len(migs.Migrations), listMigrations, err)
	}

	logger.Infof("successfully ran %d migrations from migrations: %s", nMigrations, listMigrations)
	return nil
}
