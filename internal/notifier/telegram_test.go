package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/goran-ethernal/TransferCrawler/internal/common"
	"github.com/goran-ethernal/TransferCrawler/pkg/config"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) config.NotifierConfig {
	cfg := config.NotifierConfig{
		BotToken: "123:abc",
		ChatID:   "-1001813292844",
		BaseURL:  baseURL,
		Timeout:  common.NewDuration(time.Second),
	}
	return cfg
}

func testRequest() Request {
	return Request{
		From:   "TXJdFrZbfL1fZcwkAs7HtgGHNdRjYnviwV",
		To:     "TJSQdBmanjLzvj8zhZgEvtzmsVqDMt3QKH",
		Amount: decimal.RequireFromString("3.5"),
	}
}

func TestRequestText(t *testing.T) {
	require.Equal(t,
		"Incoming token transfer\n\nfrom: TXJdFrZbfL1fZcwkAs7HtgGHNdRjYnviwV\n\nto: TJSQdBmanjLzvj8zhZgEvtzmsVqDMt3QKH\n\namount: 3.5",
		testRequest().Text())
}

func TestNotify_PostsMessage(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		got  sendMessage
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		path = r.URL.Path
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegram(testConfig(srv.URL+"/"), nil)
	n.Notify(context.Background(), testRequest())
	n.Wait()

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "/bot123:abc/sendMessage", path)
	require.Equal(t, "-1001813292844", got.ChatID)
	require.Equal(t, testRequest().Text(), got.Text)
}

func TestNotify_DoesNotBlockCaller(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()

	n := NewTelegram(testConfig(srv.URL), nil)

	done := make(chan struct{})
	go func() {
		n.Notify(context.Background(), testRequest())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Notify blocked on the network")
	}

	close(release)
	n.Wait()
}

func TestNotify_SurvivesCallerCancellation(t *testing.T) {
	received := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received <- struct{}{}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	n := NewTelegram(testConfig(srv.URL), nil)
	n.Notify(ctx, testRequest())
	cancel()
	n.Wait()

	select {
	case <-received:
	default:
		t.Fatal("alert was not delivered")
	}
}

func TestNotify_FailuresAreSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegram(testConfig(srv.URL), nil)
	n.Notify(context.Background(), testRequest())
	n.Wait()

	err := n.send(context.Background(), testRequest())
	require.ErrorContains(t, err, "status 400")
}

func TestSend_RedactsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	n := NewTelegram(testConfig(url), nil)
	err := n.send(context.Background(), testRequest())
	require.Error(t, err)
	require.NotContains(t, err.Error(), "123:abc")
}

func TestNotify_Disabled(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.BotToken = ""

	n := NewTelegram(cfg, nil)
	n.Notify(context.Background(), testRequest())
	n.Wait()
	require.False(t, called)
}
