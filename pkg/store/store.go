package store

import (
	"context"

	"github.com/goran-ethernal/TransferCrawler/internal/block"
)

// Gateway persists crawled blocks and transfers.
type Gateway interface {
	// InsertBlock records a block. A height that is already stored is a conflict.
	InsertBlock(ctx context.Context, identity block.BlockIdentity) error

	// InsertTransfer records a transfer. A transaction id that is already stored is a conflict.
	InsertTransfer(ctx context.Context, transfer block.TransferRecord) error

	WatchSource
}

// WatchSource provides the set of watched addresses.
type WatchSource interface {
	// LoadWatchedAddresses returns every address currently flagged as watched.
	LoadWatchedAddresses(ctx context.Context) (map[string]struct{}, error)
}
