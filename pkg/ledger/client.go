package ledger

import (
	"context"
	"net/http"
)

// BlockResponse is the unprocessed answer of the node to a block request.
type BlockResponse struct {
	StatusCode int
	Body       []byte
}

// OK reports whether the node answered with a 2xx status.
func (r *BlockResponse) OK() bool {
	return r.StatusCode >= http.StatusOK && r.StatusCode < http.StatusMultipleChoices
}

// Client defines the node operations the crawler depends on.
// This abstraction allows for easier testing and alternative implementations.
type Client interface {
	// LatestHeight returns the height of the most recent block known to the node.
	LatestHeight(ctx context.Context) (uint64, error)

	// Block fetches a block with its transactions. The response is returned as is,
	// status and body interpretation is left to the caller.
	Block(ctx context.Context, height uint64) (*BlockResponse, error)
}
