// Package crawler drives the block cursor: it fetches blocks in height order
// and hands each accepted block to a bounded pool of processing tasks.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/goran-ethernal/TransferCrawler/internal/block"
	"github.com/goran-ethernal/TransferCrawler/internal/common"
	"github.com/goran-ethernal/TransferCrawler/internal/control"
	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/goran-ethernal/TransferCrawler/internal/metrics"
	"github.com/goran-ethernal/TransferCrawler/internal/notifier"
	"github.com/goran-ethernal/TransferCrawler/internal/store"
	"github.com/goran-ethernal/TransferCrawler/internal/watchlist"
	"github.com/goran-ethernal/TransferCrawler/pkg/config"
	pkgledger "github.com/goran-ethernal/TransferCrawler/pkg/ledger"
	pkgstore "github.com/goran-ethernal/TransferCrawler/pkg/store"
	"golang.org/x/sync/errgroup"
)

// placeholderSize is the body length of the node's answer for a height that
// has not been produced yet.
const placeholderSize = 3

// Transient fetch reasons.
const (
	reasonTransport   = "transport"
	reasonStatus      = "status"
	reasonNotProduced = "not_produced"
)

// Task failure reasons.
const (
	failureMalformed   = "malformed"
	failureConflict    = "conflict"
	failurePersistence = "persistence"
	failureOrphan      = "orphan_transfer"
	failurePanic       = "panic"
)

// State is the lifecycle state of the loop.
type State int32

const (
	StateRunning State = iota
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Ingester decodes a raw block payload.
type Ingester interface {
	Ingest(body []byte) (block.BlockIdentity, []block.TransferRecord, error)
}

// Notifier receives alerts for transfers to watched addresses.
type Notifier interface {
	Notify(ctx context.Context, req notifier.Request)
}

// Crawler owns the block height cursor.
type Crawler struct {
	cfg       config.CrawlerConfig
	ledger    pkgledger.Client
	processor Ingester
	store     pkgstore.Gateway
	watchlist *watchlist.Registry
	notifier  Notifier
	flags     *control.Flags
	log       *logger.Logger

	state  atomic.Int32
	height atomic.Uint64
}

// New creates a crawler. Every dependency is required.
func New(
	cfg config.CrawlerConfig,
	ledgerClient pkgledger.Client,
	processor Ingester,
	gateway pkgstore.Gateway,
	registry *watchlist.Registry,
	notify Notifier,
	flags *control.Flags,
	log *logger.Logger,
) (*Crawler, error) {
	switch {
	case ledgerClient == nil:
		return nil, errors.New("ledger client is required")
	case processor == nil:
		return nil, errors.New("block processor is required")
	case gateway == nil:
		return nil, errors.New("store is required")
	case registry == nil:
		return nil, errors.New("watch list is required")
	case notify == nil:
		return nil, errors.New("notifier is required")
	case flags == nil:
		return nil, errors.New("control flags are required")
	case log == nil:
		return nil, errors.New("logger is required")
	}

	if cfg.MaxInFlight <= 0 {
		return nil, fmt.Errorf("max_in_flight must be positive, got %d", cfg.MaxInFlight)
	}

	return &Crawler{
		cfg:       cfg,
		ledger:    ledgerClient,
		processor: processor,
		store:     gateway,
		watchlist: registry,
		notifier:  notify,
		flags:     flags,
		log:       log,
	}, nil
}

// State returns the current lifecycle state.
func (c *Crawler) State() State {
	return State(c.state.Load())
}

// Height returns the next height the loop will fetch.
func (c *Crawler) Height() uint64 {
	return c.height.Load()
}

// Run seeds the cursor and fetches blocks until a stop is requested or ctx is
// done. Dispatched tasks are not interrupted by either; Run returns after they
// have finished. A stop request yields nil, a cancelled ctx yields its error.
func (c *Crawler) Run(ctx context.Context) error {
	height, err := c.seed(ctx)
	if err != nil {
		c.state.Store(int32(StateStopped))
		return err
	}
	c.setHeight(height)
	metrics.ComponentHealthSet(common.ComponentCrawler, true)

	c.log.Infow("crawler started",
		"height", height,
		"max_in_flight", c.cfg.MaxInFlight,
		"retry_interval", c.cfg.RetryInterval.Duration,
	)

	// Tasks must finish even when the process is shutting down.
	taskCtx := context.WithoutCancel(ctx)

	var tasks errgroup.Group
	tasks.SetLimit(c.cfg.MaxInFlight)

	err = c.loop(ctx, taskCtx, &tasks)

	c.state.Store(int32(StateStopped))
	metrics.ComponentHealthSet(common.ComponentCrawler, false)
	c.log.Infow("crawler stopped, waiting for in-flight blocks", "height", c.Height())
	_ = tasks.Wait()
	c.log.Infow("in-flight blocks finished", "height", c.Height())

	return err
}

func (c *Crawler) loop(ctx, taskCtx context.Context, tasks *errgroup.Group) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		if c.flags.StopRequested() {
			c.log.Info("stop requested")
			return nil
		}

		if c.flags.TakeReload() {
			if err := c.watchlist.Reload(ctx, c.store); err != nil {
				c.log.Errorw("failed to reload watch list", "error", err)
			}
		}

		height := c.Height()
		resp, err := c.ledger.Block(ctx, height)

		if reason := classify(resp, err); reason != "" {
			if ctx.Err() != nil {
				continue
			}

			metrics.TransientFetchInc(reason)
			c.log.Debugw("block not available, retrying",
				"height", height,
				"reason", reason,
				"error", err,
				"retry_in", c.cfg.RetryInterval.Duration,
			)

			select {
			case <-time.After(c.cfg.RetryInterval.Duration):
			case <-c.flags.StopNotify():
			case <-ctx.Done():
			}
			continue
		}

		body := resp.Body
		tasks.Go(func() error {
			c.runTask(taskCtx, height, body)
			return nil
		})

		metrics.BlocksFetched.Inc()
		c.setHeight(height + 1)
	}
}

// classify returns the transient reason of a fetch result, or "" when the
// result is accepted for processing.
func classify(resp *pkgledger.BlockResponse, err error) string {
	switch {
	case err != nil:
		return reasonTransport
	case !resp.OK():
		return reasonStatus
	case len(resp.Body) == placeholderSize:
		return reasonNotProduced
	default:
		return ""
	}
}

func (c *Crawler) seed(ctx context.Context) (uint64, error) {
	if c.cfg.StartHeight > 0 {
		return c.cfg.StartHeight, nil
	}

	var height uint64
	err := retryWithBackoff(ctx, c.cfg.Retry, "latest_height", func() error {
		var err error
		height, err = c.ledger.LatestHeight(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get latest block height: %w", err)
	}

	return height, nil
}

func (c *Crawler) setHeight(height uint64) {
	c.height.Store(height)
	metrics.CursorHeightSet(height)
}

// runTask processes one block and reports its outcome. Nothing it does can
// reach the loop.
func (c *Crawler) runTask(ctx context.Context, height uint64, body []byte) {
	metrics.TasksInFlight.Inc()
	start := time.Now()
	defer func() {
		metrics.TasksInFlight.Dec()
		metrics.BlockProcessingTimeLog(time.Since(start))
	}()

	err := c.processBlock(ctx, height, body)
	if err == nil {
		return
	}

	reason := failureReason(err)
	metrics.TaskFailureInc(reason)
	metrics.ErrorInc(common.ComponentCrawler, "error")

	if reason == failureConflict {
		c.log.Errorw("block already processed", "height", height, "conflict", true, "error", err)
		return
	}
	c.log.Errorw("failed to process block", "height", height, "reason", reason, "error", err)
}

func (c *Crawler) processBlock(ctx context.Context, height uint64, body []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{value: r}
		}
	}()

	identity, transfers, err := c.processor.Ingest(body)
	if err != nil {
		return err
	}

	if identity.Height != height {
		c.log.Warnw("node returned a different height than requested",
			"requested", height, "returned", identity.Height)
	}

	if err := c.store.InsertBlock(ctx, identity); err != nil {
		return err
	}

	for _, transfer := range transfers {
		if err := c.store.InsertTransfer(ctx, transfer); err != nil {
			return err
		}
		metrics.TransfersIndexedInc(1)

		if c.watchlist.Contains(transfer.To) {
			c.log.Infow("transfer to watched address",
				"tx_id", transfer.TxID,
				"from", transfer.From,
				"to", transfer.To,
				"amount", transfer.AmountScaled,
			)
			c.notifier.Notify(ctx, notifier.Request{
				From:   transfer.From,
				To:     transfer.To,
				Amount: transfer.AmountScaled,
			})
		}
	}

	c.log.Debugw("block processed",
		"height", identity.Height,
		"block_id", identity.BlockID,
		"txs", identity.TxCount,
		"transfers", len(transfers),
	)

	return nil
}

type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("panic while processing block: %v", e.value)
}

func failureReason(err error) string {
	var (
		malformed *block.MalformedError
		conflict  *store.ConflictError
		panicked  *panicError
	)

	switch {
	case errors.As(err, &malformed):
		return failureMalformed
	case errors.As(err, &conflict):
		return failureConflict
	case errors.Is(err, store.ErrUnknownBlock):
		return failureOrphan
	case errors.As(err, &panicked):
		return failurePanic
	default:
		return failurePersistence
	}
}
