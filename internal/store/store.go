package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/goran-ethernal/TransferCrawler/internal/block"
	"github.com/goran-ethernal/TransferCrawler/internal/db"
	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/goran-ethernal/TransferCrawler/internal/metrics"
	pkgstore "github.com/goran-ethernal/TransferCrawler/pkg/store"
	"github.com/russross/meddler"
)

// Compile-time check to ensure Store implements pkgstore.Gateway interface.
var _ pkgstore.Gateway = (*Store)(nil)

// Store writes blocks and transfers through meddler and reads the watch list.
type Store struct {
	db      *sql.DB
	dialect *meddler.Database
	log     *logger.Logger
}

// New creates a store on an open, migrated database.
func New(database *sql.DB, driver string, log *logger.Logger) (*Store, error) {
	dialect, err := db.Dialect(driver)
	if err != nil {
		return nil, err
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Store{db: database, dialect: dialect, log: log}, nil
}

// InsertBlock stores the identity of a block keyed by its height.
func (s *Store) InsertBlock(ctx context.Context, identity block.BlockIdentity) error {
	row := &blockRow{
		Height:     identity.Height,
		BlockID:    identity.BlockID,
		ParentHash: identity.ParentHash,
	}

	return s.insert(ctx, blocksTable, strconv.FormatUint(identity.Height, 10), row)
}

// InsertTransfer stores a transfer keyed by its transaction id.
func (s *Store) InsertTransfer(ctx context.Context, transfer block.TransferRecord) error {
	row := &transferRow{
		TxID:         transfer.TxID,
		BlockHeight:  transfer.BlockHeight,
		From:         transfer.From,
		To:           transfer.To,
		AmountRaw:    transfer.AmountRaw,
		AmountScaled: transfer.AmountScaled,
	}

	return s.insert(ctx, transfersTable, transfer.TxID, row)
}

// LoadWatchedAddresses returns the addresses whose watching flag is set.
func (s *Store) LoadWatchedAddresses(ctx context.Context) (map[string]struct{}, error) {
	metrics.DBQueryInc(watchedTable, "select")
	start := time.Now()
	defer func() {
		metrics.DBQueryDuration(watchedTable, "select", time.Since(start))
	}()

	var rows []*watchedRow
	err := s.dialect.QueryAll(db.WithContext(ctx, s.db), &rows,
		`SELECT address FROM `+watchedTable+` WHERE watching`)
	if err != nil {
		metrics.DBErrorsInc(watchedTable, "query")
		return nil, fmt.Errorf("failed to load watched addresses: %w", err)
	}

	watched := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		watched[r.Address] = struct{}{}
	}

	return watched, nil
}

func (s *Store) insert(ctx context.Context, table, key string, row any) error {
	metrics.DBQueryInc(table, "insert")
	start := time.Now()
	defer func() {
		metrics.DBQueryDuration(table, "insert", time.Since(start))
	}()

	err := s.dialect.Insert(db.WithContext(ctx, s.db), table, row)
	if err == nil {
		return nil
	}

	if db.IsUniqueViolation(err) {
		metrics.DBErrorsInc(table, "conflict")
		return &ConflictError{Table: table, Key: key, Err: err}
	}

	if db.IsForeignKeyViolation(err) {
		metrics.DBErrorsInc(table, "foreign_key")
		return fmt.Errorf("failed to insert into %s (key %s): %w: %w", table, key, ErrUnknownBlock, err)
	}

	metrics.DBErrorsInc(table, "insert")
	return fmt.Errorf("failed to insert into %s (key %s): %w", table, key, err)
}
