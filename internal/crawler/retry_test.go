package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/goran-ethernal/TransferCrawler/internal/common"
	"github.com/goran-ethernal/TransferCrawler/internal/ledger"
	"github.com/goran-ethernal/TransferCrawler/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNetError implements net.Error for testing
type mockNetError struct {
	msg     string
	timeout bool
}

func (e *mockNetError) Error() string   { return e.msg }
func (e *mockNetError) Timeout() bool   { return e.timeout }
func (e *mockNetError) Temporary() bool { return false }

func fastRetry(attempts int) *config.RetryConfig {
	return &config.RetryConfig{
		MaxAttempts:       attempts,
		InitialBackoff:    common.NewDuration(5 * time.Millisecond),
		MaxBackoff:        common.NewDuration(20 * time.Millisecond),
		BackoffMultiplier: 2.0,
	}
}

func TestRetryableError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil error", err: nil, retryable: false},
		{name: "network timeout", err: &mockNetError{msg: "i/o timeout", timeout: true}, retryable: true},
		{name: "connection refused", err: syscall.ECONNREFUSED, retryable: true},
		{name: "connection reset", err: fmt.Errorf("wallet/getblock: %w", syscall.ECONNRESET), retryable: true},
		{name: "deadline", err: context.DeadlineExceeded, retryable: true},
		{name: "unexpected eof", err: errors.New("unexpected EOF"), retryable: true},
		{name: "rate limited status", err: &ledger.StatusError{Method: "m", StatusCode: http.StatusTooManyRequests}, retryable: true},
		{name: "unavailable status", err: &ledger.StatusError{Method: "m", StatusCode: http.StatusServiceUnavailable}, retryable: true},
		{name: "unauthorized status", err: &ledger.StatusError{Method: "m", StatusCode: http.StatusUnauthorized}, retryable: false},
		{name: "not found status", err: &ledger.StatusError{Method: "m", StatusCode: http.StatusNotFound}, retryable: false},
		{name: "decode failure", err: errors.New("wallet/getblockbylatestnum: response carries no block height"), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, retryableError(tt.err))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := &config.RetryConfig{
		InitialBackoff:    common.NewDuration(1 * time.Second),
		MaxBackoff:        common.NewDuration(5 * time.Second),
		BackoffMultiplier: 2.0,
	}

	require.Zero(t, calculateBackoff(1, cfg))

	for i := 0; i < 10; i++ {
		b := calculateBackoff(3, cfg)
		assert.GreaterOrEqual(t, b, 1500*time.Millisecond)
		assert.LessOrEqual(t, b, 2500*time.Millisecond)

		assert.LessOrEqual(t, calculateBackoff(10, cfg), 6250*time.Millisecond, "capped at max plus jitter")
	}
}

func TestRetryWithBackoff_SuccessAfterRetries(t *testing.T) {
	calls := 0
	err := retryWithBackoff(context.Background(), fastRetry(5), "test", func() error {
		calls++
		if calls < 3 {
			return &mockNetError{msg: "temporary", timeout: true}
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_NonRetryable(t *testing.T) {
	calls := 0
	expected := &ledger.StatusError{Method: "m", StatusCode: http.StatusForbidden}
	err := retryWithBackoff(context.Background(), fastRetry(5), "test", func() error {
		calls++
		return expected
	})

	require.ErrorContains(t, err, "non-retryable error")
	require.ErrorIs(t, err, expected)
	assert.Equal(t, 1, calls)
}

func TestRetryWithBackoff_Exhausted(t *testing.T) {
	calls := 0
	expected := &mockNetError{msg: "persistent", timeout: true}
	err := retryWithBackoff(context.Background(), fastRetry(3), "test", func() error {
		calls++
		return expected
	})

	require.ErrorContains(t, err, "all 3 attempts failed")
	require.ErrorIs(t, err, expected)
	assert.Equal(t, 3, calls)
}

func TestRetryWithBackoff_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := retryWithBackoff(ctx, fastRetry(5), "test", func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return &mockNetError{msg: "temporary", timeout: true}
	})

	require.ErrorContains(t, err, "context cancelled")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, calls)
}

func TestRetryWithBackoff_NilConfig(t *testing.T) {
	expected := errors.New("boom")
	calls := 0
	err := retryWithBackoff(context.Background(), nil, "test", func() error {
		calls++
		return expected
	})

	require.ErrorIs(t, err, expected)
	assert.Equal(t, 1, calls)
}
