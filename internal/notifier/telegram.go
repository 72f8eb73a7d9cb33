package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goran-ethernal/TransferCrawler/internal/logger"
	"github.com/goran-ethernal/TransferCrawler/internal/metrics"
	"github.com/goran-ethernal/TransferCrawler/pkg/config"
	"github.com/shopspring/decimal"
)

const (
	statusSent     = "sent"
	statusFailed   = "failed"
	statusDisabled = "disabled"
)

// Request describes a transfer to a watched address.
type Request struct {
	From   string
	To     string
	Amount decimal.Decimal
}

// Text renders the alert message.
func (r Request) Text() string {
	return fmt.Sprintf("Incoming token transfer\n\nfrom: %s\n\nto: %s\n\namount: %s", r.From, r.To, r.Amount.String())
}

type sendMessage struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// Telegram posts alerts through the Telegram Bot API.
type Telegram struct {
	endpoint string
	chatID   string
	enabled  bool
	client   *http.Client
	log      *logger.Logger

	wg sync.WaitGroup
}

// NewTelegram creates a notifier from cfg. Without a bot token every Notify is a no-op.
func NewTelegram(cfg config.NotifierConfig, log *logger.Logger) *Telegram {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Telegram{
		endpoint: fmt.Sprintf("%s/bot%s/sendMessage", strings.TrimRight(cfg.BaseURL, "/"), cfg.BotToken),
		chatID:   cfg.ChatID,
		enabled:  cfg.Enabled(),
		client:   &http.Client{Timeout: cfg.Timeout.Duration},
		log:      log,
	}
}

// Notify sends req in the background. It never blocks on the network and
// never reports failure; failures are logged and counted.
func (t *Telegram) Notify(ctx context.Context, req Request) {
	if !t.enabled {
		metrics.NotificationInc(statusDisabled)
		t.log.Debugw("notifier disabled, dropping alert", "from", req.From, "to", req.To, "amount", req.Amount)
		return
	}

	// The send outlives the caller, so it must not inherit its cancellation.
	sendCtx := context.WithoutCancel(ctx)

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		if err := t.send(sendCtx, req); err != nil {
			metrics.NotificationInc(statusFailed)
			t.log.Warnw("failed to send alert", "to", req.To, "amount", req.Amount, "error", err)
			return
		}

		metrics.NotificationInc(statusSent)
		t.log.Debugw("alert sent", "to", req.To, "amount", req.Amount)
	}()
}

// Wait blocks until every pending send has finished.
func (t *Telegram) Wait() {
	t.wg.Wait()
}

func (t *Telegram) send(ctx context.Context, req Request) error {
	body, err := json.Marshal(sendMessage{ChatID: t.chatID, Text: req.Text()})
	if err != nil {
		return fmt.Errorf("marshal telegram payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create telegram request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	if err != nil {
		// The endpoint carries the bot token, keep it out of the logs.
		return fmt.Errorf("send telegram alert: %w", redact(err, t.endpoint))
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("telegram returned status %d after %v", resp.StatusCode, time.Since(start))
	}
	return nil
}

type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, secret string) error {
	return &redactedError{msg: strings.ReplaceAll(err.Error(), secret, "[telegram endpoint]"), err: err}
}
