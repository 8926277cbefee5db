package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/balancecheck/internal/clients"
	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/pkg/retrier"
)

type webhook struct {
	mu       sync.Mutex
	messages []string
	status   int
}

func (w *webhook) handler(t *testing.T) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/T000/B000/XXX", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		var m message
		assert.NoError(t, json.Unmarshal(body, &m))

		w.mu.Lock()
		w.messages = append(w.messages, m.Text)
		w.mu.Unlock()

		if w.status != 0 {
			rw.WriteHeader(w.status)
		}
		_, _ = rw.Write([]byte("ok"))
	}
}

func newSlack(t *testing.T, hook *webhook) *Slack {
	t.Helper()
	srv := httptest.NewServer(hook.handler(t))
	t.Cleanup(srv.Close)

	rest := clients.NewRESTClient(srv.URL+"/services/T000/B000/XXX",
		clients.WithRetrier(retrier.New(retrier.WithMaxRetries(0))))
	return NewSlack(rest, "CAD", nil)
}

func TestSlack_PublishPositionsByExchange(t *testing.T) {
	hook := &webhook{}
	slack := newSlack(t, hook)

	btc := domain.NewPosition("BTC", "CAD")
	btc.SpotAmount = decimal.RequireFromString("0.5")
	btc.SpotAmountInFiat = decimal.RequireFromString("25000")

	err := slack.PublishPositionsByExchange(context.Background(), domain.ExchangePositions{
		{Exchange: "BINANCE", Positions: domain.Positions{"BTC": btc}},
		{Exchange: "NEWTON", Positions: domain.Positions{}},
	})
	require.NoError(t, err)

	require.Len(t, hook.messages, 1)
	msg := hook.messages[0]
	assert.True(t, strings.HasPrefix(msg, "```\nBINANCE: $25,000.00 CAD"))
	assert.True(t, strings.HasSuffix(msg, "```"))
	assert.Contains(t, msg, "NEWTON: $0.00 CAD")
	assert.Less(t, strings.Index(msg, "BINANCE"), strings.Index(msg, "NEWTON"))
}

func TestSlack_PublishTotalAndURL(t *testing.T) {
	hook := &webhook{}
	slack := newSlack(t, hook)

	require.NoError(t, slack.PublishTotal(context.Background(), decimal.RequireFromString("1234.567"), "CAD"))
	require.NoError(t, slack.PublishURL(context.Background(), "https://i.imgur.com/x.png"))

	assert.Equal(t, []string{"*Total:* $1,234.57 CAD", "https://i.imgur.com/x.png"}, hook.messages)
}

func TestSlack_WebhookFailure(t *testing.T) {
	hook := &webhook{status: http.StatusNotFound}
	slack := newSlack(t, hook)

	err := slack.PublishURL(context.Background(), "x")
	assert.Error(t, err)
}
