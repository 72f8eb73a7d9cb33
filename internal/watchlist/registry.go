// Package watchlist keeps the in-memory set of addresses whose incoming
// transfers trigger a notification.
package watchlist

import (
	"context"
	"fmt"
	"sync"

	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/goran-ethernal/TransferCrawler/internal/metrics"
	pkgstore "github.com/goran-ethernal/TransferCrawler/pkg/store"
)

// Registry is a snapshot of the watch list that is replaced wholesale on reload.
type Registry struct {
	mu      sync.RWMutex
	watched map[string]struct{}
	log     *logger.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(log *logger.Logger) *Registry {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Registry{
		watched: make(map[string]struct{}),
		log:     log,
	}
}

// Contains reports whether address is in the current snapshot.
func (r *Registry) Contains(address string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.watched[address]
	return ok
}

// Len returns the size of the current snapshot.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.watched)
}

// Reload replaces the snapshot with the set loaded from source. The lock is not
// held during the load, and a failed load leaves the previous snapshot in place.
func (r *Registry) Reload(ctx context.Context, source pkgstore.WatchSource) error {
	watched, err := source.LoadWatchedAddresses(ctx)
	if err != nil {
		r.log.Warnw("watch list reload failed, keeping previous set", "watched", r.Len(), "error", err)
		return fmt.Errorf("reload watch list: %w", err)
	}

	if watched == nil {
		watched = make(map[string]struct{})
	}

	r.mu.Lock()
	previous := len(r.watched)
	r.watched = watched
	r.mu.Unlock()

	metrics.WatchedAddressesSet(len(watched))
	r.log.Infow("watch list reloaded", "previous", previous, "watched", len(watched))

	return nil
}
