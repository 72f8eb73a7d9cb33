package store

import (
	"context"
	"math/big"
	"testing"

	"github.com/goran-ethernal/TransferCrawler/internal/block"
	"github.com/goran-ethernal/TransferCrawler/pkg/config"
	"github.com/goran-ethernal/TransferCrawler/tests/helpers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, func(query string, args ...any) int) {
	t.Helper()

	database := helpers.NewTestDB(t, "store.sqlite")
	s, err := New(database, config.DriverSQLite, nil)
	require.NoError(t, err)

	count := func(query string, args ...any) int {
		var n int
		require.NoError(t, database.QueryRow(query, args...).Scan(&n))
		return n
	}

	return s, count
}

func testTransfer(txID string, height uint64) block.TransferRecord {
	raw, _ := new(big.Int).SetString("3000000000000000000", 10)
	return block.TransferRecord{
		TxID:         txID,
		BlockHeight:  height,
		From:         "TXJdFrZbfL1fZcwkAs7HtgGHNdRjYnviwV",
		To:           "TJSQdBmanjLzvj8zhZgEvtzmsVqDMt3QKH",
		AmountRaw:    raw,
		AmountScaled: decimal.NewFromInt(3),
	}
}

func TestInsertBlock(t *testing.T) {
	s, count := newTestStore(t)
	ctx := context.Background()

	identity := block.BlockIdentity{Height: 10, BlockID: "0a", ParentHash: "09"}
	require.NoError(t, s.InsertBlock(ctx, identity))
	require.Equal(t, 1, count(`SELECT COUNT(*) FROM blocks WHERE height = ? AND block_id = ? AND parent_hash = ?`, 10, "0a", "09"))
}

func TestInsertBlock_Conflict(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	identity := block.BlockIdentity{Height: 11, BlockID: "0b", ParentHash: "0a"}
	require.NoError(t, s.InsertBlock(ctx, identity))

	err := s.InsertBlock(ctx, identity)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "blocks", conflict.Table)
	require.Equal(t, "11", conflict.Key)
}

func TestInsertTransfer(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertBlock(ctx, block.BlockIdentity{Height: 20, BlockID: "14", ParentHash: "13"}))
	require.NoError(t, s.InsertTransfer(ctx, testTransfer("tx-1", 20)))

	var raw, scaled, to string
	require.NoError(t, s.db.QueryRow(
		`SELECT amount_raw, amount_scaled, address_to FROM transfers WHERE tx_id = ?`, "tx-1",
	).Scan(&raw, &scaled, &to))
	require.Equal(t, "3000000000000000000", raw)
	require.Equal(t, "3", scaled)
	require.Equal(t, "TJSQdBmanjLzvj8zhZgEvtzmsVqDMt3QKH", to)
}

func TestInsertTransfer_Conflict(t *testing.T) {
	s, count := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.InsertBlock(ctx, block.BlockIdentity{Height: 21, BlockID: "15", ParentHash: "14"}))
	require.NoError(t, s.InsertTransfer(ctx, testTransfer("tx-dup", 21)))

	err := s.InsertTransfer(ctx, testTransfer("tx-dup", 21))
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "transfers", conflict.Table)
	require.Equal(t, "tx-dup", conflict.Key)
	require.Equal(t, 1, count(`SELECT COUNT(*) FROM transfers`))
}

func TestInsertTransfer_UnknownBlock(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.InsertTransfer(context.Background(), testTransfer("tx-orphan", 999))
	require.Error(t, err)

	require.ErrorIs(t, err, ErrUnknownBlock)

	var conflict *ConflictError
	require.NotErrorAs(t, err, &conflict)
}

func TestLoadWatchedAddresses(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	watched, err := s.LoadWatchedAddresses(ctx)
	require.NoError(t, err)
	require.Empty(t, watched)

	helpers.WatchAddress(t, s.db, "TJSQdBmanjLzvj8zhZgEvtzmsVqDMt3QKH", true)
	helpers.WatchAddress(t, s.db, "TXJdFrZbfL1fZcwkAs7HtgGHNdRjYnviwV", false)
	helpers.WatchAddress(t, s.db, "TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t", true)

	watched, err = s.LoadWatchedAddresses(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]struct{}{
		"TJSQdBmanjLzvj8zhZgEvtzmsVqDMt3QKH": {},
		"TR7NHqjeKQxGTCi8q8ZY4pL8otSzgjLj6t": {},
	}, watched)
}

func TestNew_UnknownDriver(t *testing.T) {
	_, err := New(nil, "mysql", nil)
	require.Error(t, err)
}
