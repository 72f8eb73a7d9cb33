package store

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

const (
	blocksTable    = "blocks"
	transfersTable = "transfers"
	watchedTable   = "watched_addresses"
)

// ErrUnknownBlock is returned when a transfer references a block that is not stored.
var ErrUnknownBlock = errors.New("referenced block is not stored")

// ConflictError is returned when a row with the same key is already stored.
type ConflictError struct {
	Table string
	Key   string
	Err   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: row with key %s already exists", e.Table, e.Key)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

type blockRow struct {
	Height     uint64 `meddler:"height"`
	BlockID    string `meddler:"block_id"`
	ParentHash string `meddler:"parent_hash"`
}

type transferRow struct {
	TxID         string          `meddler:"tx_id"`
	BlockHeight  uint64          `meddler:"block_height"`
	From         string          `meddler:"address_from"`
	To           string          `meddler:"address_to"`
	AmountRaw    *big.Int        `meddler:"amount_raw,bigint"`
	AmountScaled decimal.Decimal `meddler:"amount_scaled,decimal"`
}

type watchedRow struct {
	Address string `meddler:"address"`
}
