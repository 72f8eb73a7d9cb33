package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	pkgledger "github.com/goran-ethernal/TransferCrawler/pkg/ledger"
)

const (
	methodLatestBlock = "wallet/getblockbylatestnum"
	methodGetBlock    = "wallet/getblock"

	apiKeyHeader = "TRON-PRO-API-KEY"

	// maxBodySize caps how much of a response is read. Blocks with full
	// transaction detail can be large, but never this large.
	maxBodySize = 64 << 20
)

// Compile-time check to ensure Client implements pkgledger.Client interface.
var _ pkgledger.Client = (*Client)(nil)

// Client talks to the HTTP API of a Tron full node.
type Client struct {
	host    string
	apiKey  string
	http    *http.Client
	maxBody int64
	log     *logger.Logger
}

// NewClient creates a client for the node at host. A zero timeout means no timeout.
func NewClient(host, apiKey string, timeout time.Duration, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Client{
		host:    strings.TrimRight(host, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
		maxBody: maxBodySize,
		log:     log,
	}
}

type latestBlockRequest struct {
	Num int `json:"num"`
}

type latestBlockResponse struct {
	Block []struct {
		BlockHeader struct {
			RawData struct {
				Number *uint64 `json:"number"`
			} `json:"raw_data"`
		} `json:"block_header"`
	} `json:"block"`
}

type blockRequest struct {
	IDOrNum string `json:"id_or_num"`
	Detail  bool   `json:"detail"`
}

// LatestHeight returns the height of the newest block the node knows about.
func (c *Client) LatestHeight(ctx context.Context) (uint64, error) {
	status, body, err := c.post(ctx, methodLatestBlock, latestBlockRequest{Num: 1})
	if err != nil {
		return 0, err
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		methodError(methodLatestBlock, "status")
		return 0, &StatusError{Method: methodLatestBlock, StatusCode: status}
	}

	var resp latestBlockResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		methodError(methodLatestBlock, "decode")
		return 0, fmt.Errorf("%s: decode response: %w", methodLatestBlock, err)
	}

	if len(resp.Block) == 0 || resp.Block[0].BlockHeader.RawData.Number == nil {
		methodError(methodLatestBlock, "decode")
		return 0, fmt.Errorf("%s: response carries no block height", methodLatestBlock)
	}

	return *resp.Block[0].BlockHeader.RawData.Number, nil
}

// Block fetches the block at height with full transaction detail.
func (c *Client) Block(ctx context.Context, height uint64) (*pkgledger.BlockResponse, error) {
	status, body, err := c.post(ctx, methodGetBlock, blockRequest{
		IDOrNum: strconv.FormatUint(height, 10),
		Detail:  true,
	})
	if err != nil {
		return nil, err
	}

	return &pkgledger.BlockResponse{StatusCode: status, Body: body}, nil
}

func (c *Client) post(ctx context.Context, method string, payload any) (int, []byte, error) {
	methodInc(method)
	start := time.Now()
	defer func() {
		methodDuration(method, time.Since(start))
	}()

	reqBody, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("%s: encode request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/"+method, bytes.NewReader(reqBody))
	if err != nil {
		return 0, nil, fmt.Errorf("%s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			methodError(method, "canceled")
		} else {
			methodError(method, "transport")
		}
		return 0, nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		methodError(method, "read")
		return 0, nil, fmt.Errorf("%s: read response: %w", method, err)
	}
	if int64(len(body)) > c.maxBody {
		methodError(method, "too_large")
		return 0, nil, fmt.Errorf("%s: %w (limit %d bytes)", method, ErrResponseTooLarge, c.maxBody)
	}

	c.log.Debugw("node request completed",
		"method", method,
		"status", resp.StatusCode,
		"bytes", len(body),
		"duration", time.Since(start),
	)

	return resp.StatusCode, body, nil
}
