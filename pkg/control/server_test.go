package control

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/goran-ethernal/TransferCrawler/internal/common"
	"github.com/goran-ethernal/TransferCrawler/internal/control"
	"github.com/goran-ethernal/TransferCrawler/internal/crawler"
	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/goran-ethernal/TransferCrawler/pkg/config"
	"github.com/stretchr/testify/require"
)

func freeAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

func TestServerStartAndShutdown(t *testing.T) {
	t.Parallel()

	cfg := &config.ControlConfig{
		ListenAddress: freeAddress(t),
		ReadTimeout:   common.NewDuration(5 * time.Second),
		WriteTimeout:  common.NewDuration(5 * time.Second),
		IdleTimeout:   common.NewDuration(5 * time.Second),
	}

	handler := NewHandler(IdentityResponse{Name: "transfer-crawler"},
		stubStatus{state: crawler.StateStopped}, stubWatchSet(0), &control.Flags{}, logger.NewNopLogger())
	server := NewServer(cfg, handler, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Start(ctx) }()

	url := fmt.Sprintf("http://%s/health", cfg.ListenAddress)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url) //nolint:noctx
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServerStartBindFailure(t *testing.T) {
	t.Parallel()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	cfg := &config.ControlConfig{ListenAddress: l.Addr().String()}
	handler := NewHandler(IdentityResponse{}, stubStatus{}, stubWatchSet(0), &control.Flags{}, logger.NewNopLogger())

	err = NewServer(cfg, handler, logger.NewNopLogger()).Start(context.Background())
	require.ErrorContains(t, err, "failed to listen")
}
