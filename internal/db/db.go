package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/goran-ethernal/TransferCrawler/pkg/config"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/russross/meddler"
)

// NewDBFromConfig opens the configured database, applies the pool settings and
// checks that it is reachable.
func NewDBFromConfig(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open(cfg.Driver, cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Driver, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime.Duration)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach %s database: %w", cfg.Driver, err)
	}

	return db, nil
}

// Dialect returns the meddler dialect for a driver name.
func Dialect(driver string) (*meddler.Database, error) {
	switch driver {
	case config.DriverPostgres:
		return meddler.PostgreSQL, nil
	case config.DriverSQLite:
		return meddler.SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// ctxDB adapts *sql.DB to meddler.DB so that meddler calls honour a context.
type ctxDB struct {
	ctx context.Context
	db  *sql.DB
}

// WithContext returns a meddler.DB whose statements run under ctx.
func WithContext(ctx context.Context, db *sql.DB) meddler.DB {
	return ctxDB{ctx: ctx, db: db}
}

func (c ctxDB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return c.db.ExecContext(c.ctx, query, args...)
}

func (c ctxDB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return c.db.QueryContext(c.ctx, query, args...)
}

func (c ctxDB) QueryRow(query string, args ...interface{}) *sql.Row {
	return c.db.QueryRowContext(c.ctx, query, args...)
}
