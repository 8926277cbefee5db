package internal

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/imagehost"
)

type fakeSource struct {
	result domain.ExchangePositions
}

func (f *fakeSource) ByExchange(context.Context) domain.ExchangePositions { return f.result }

type fakePublisher struct {
	calls     []string
	positions domain.ExchangePositions
	total     decimal.Decimal
	url       string
	failOn    string
}

func (f *fakePublisher) record(step string) error {
	f.calls = append(f.calls, step)
	if f.failOn == step {
		return errors.New("webhook down")
	}
	return nil
}

func (f *fakePublisher) PublishPositionsByExchange(_ context.Context, byExchange domain.ExchangePositions) error {
	f.positions = byExchange
	return f.record("positions")
}

func (f *fakePublisher) PublishTotal(_ context.Context, value decimal.Decimal, _ string) error {
	f.total = value
	return f.record("total")
}

func (f *fakePublisher) PublishURL(_ context.Context, link string) error {
	f.url = link
	return f.record("url")
}

type memHistory struct {
	points map[int64]decimal.Decimal
}

func (m *memHistory) Set(_ string, ts time.Time, total decimal.Decimal) error {
	if m.points == nil {
		m.points = make(map[int64]decimal.Decimal)
	}
	m.points[ts.Unix()] = total
	return nil
}

func (m *memHistory) Get(string) ([]domain.BalancePoint, error) {
	out := make([]domain.BalancePoint, 0, len(m.points))
	for _, ts := range []int64{1699990000, 1700000000} {
		if v, ok := m.points[ts]; ok {
			out = append(out, domain.NewBalancePoint(time.Unix(ts, 0), v))
		}
	}
	return out, nil
}

type fakeRenderer struct {
	points []domain.BalancePoint
}

func (f *fakeRenderer) Render(points []domain.BalancePoint, _ string) (string, error) {
	f.points = points
	if len(points) == 0 {
		return "", nil
	}
	return "/tmp/balance.png", nil
}

type fakeUploader struct {
	meta imagehost.Metadata
}

func (f *fakeUploader) Upload(_ context.Context, path string, meta imagehost.Metadata) (string, error) {
	f.meta = meta
	return "https://img.example.com/" + path[len("/tmp/"):], nil
}

func samplePositions() domain.ExchangePositions {
	btcA := domain.NewPosition("BTC", "CAD")
	btcA.SpotAmount = decimal.RequireFromString("0.5")
	btcA.SpotAmountInFiat = decimal.RequireFromString("25000")

	btcB := domain.NewPosition("BTC", "CAD")
	btcB.SpotAmount = decimal.RequireFromString("0.25")
	btcB.SpotAmountInFiat = decimal.RequireFromString("12500")

	return domain.ExchangePositions{
		{Exchange: "BINANCE", Positions: domain.Positions{"BTC": btcA}},
		{Exchange: "KUCOIN", Positions: domain.Positions{"BTC": btcB}},
		{Exchange: "NEWTON", Positions: domain.Positions{}},
	}
}

func fixedClock() time.Time { return time.Unix(1700000000, 0) }

func TestWorker_Run(t *testing.T) {
	pub := &fakePublisher{}
	hist := &memHistory{points: map[int64]decimal.Decimal{1699990000: decimal.NewFromInt(30000)}}
	renderer := &fakeRenderer{}
	uploader := &fakeUploader{}

	w := NewWorker("CAD", &fakeSource{result: samplePositions()}, pub, hist, renderer,
		WithUploader(uploader), WithClock(fixedClock))

	r, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"positions", "total", "url"}, pub.calls)
	assert.Equal(t, "37500", r.Total.String())
	assert.True(t, pub.total.Equal(decimal.NewFromInt(37500)))
	assert.Equal(t, []string{"BINANCE", "KUCOIN", "NEWTON"}, pub.positions.Names())
	assert.Equal(t, "0.75", r.Merged["BTC"].SpotAmount.String())

	require.Len(t, renderer.points, 2)
	assert.Equal(t, "37500", hist.points[1700000000].String())

	assert.Equal(t, "https://img.example.com/balance.png", r.GraphURL)
	assert.Equal(t, r.GraphURL, pub.url)
	assert.Equal(t, imagehost.DefaultTitle, uploader.meta.Title)
	assert.Equal(t, "2023-11-14 19:26:40 to 2023-11-14 22:13:20", uploader.meta.Description)
}

func TestWorker_NoUploader(t *testing.T) {
	pub := &fakePublisher{}
	w := NewWorker("CAD", &fakeSource{result: samplePositions()}, pub, &memHistory{}, &fakeRenderer{}, WithClock(fixedClock))

	r, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/tmp/balance.png", r.GraphPath)
	assert.Empty(t, r.GraphURL)
	assert.Equal(t, []string{"positions", "total"}, pub.calls)
}

func TestWorker_DryRun(t *testing.T) {
	pub := &fakePublisher{}
	hist := &memHistory{}
	var out bytes.Buffer

	w := NewWorker("CAD", &fakeSource{result: samplePositions()}, pub, hist, &fakeRenderer{}, WithDryRun(&out))

	r, err := w.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, pub.calls)
	assert.Empty(t, hist.points)
	assert.Contains(t, out.String(), "BINANCE")
	assert.Contains(t, out.String(), "$37,500.00 CAD")
	assert.Equal(t, "37500", r.Total.String())
}

func TestWorker_PublishFailureStillPersists(t *testing.T) {
	for _, step := range []string{"positions", "total", "url"} {
		t.Run(step, func(t *testing.T) {
			core, logs := observer.New(zapcore.ErrorLevel)
			pub := &fakePublisher{failOn: step}
			hist := &memHistory{}
			uploader := &fakeUploader{}

			w := NewWorker("CAD", &fakeSource{result: samplePositions()}, pub, hist, &fakeRenderer{},
				WithUploader(uploader), WithClock(fixedClock), WithWorkerLogger(zap.New(core)))

			r, err := w.Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, []string{"positions", "total", "url"}, pub.calls)
			assert.Equal(t, "37500", hist.points[1700000000].String())
			assert.Equal(t, "https://img.example.com/balance.png", r.GraphURL)
			assert.Equal(t, 1, logs.Len())
		})
	}
}

func TestWorker_EmptyPortfolio(t *testing.T) {
	pub := &fakePublisher{}
	w := NewWorker("CAD", &fakeSource{result: domain.ExchangePositions{}}, pub, &memHistory{}, &fakeRenderer{},
		WithUploader(&fakeUploader{}), WithClock(fixedClock))

	r, err := w.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, r.Total.IsZero())
	assert.Equal(t, []string{"positions", "total", "url"}, pub.calls)
}
