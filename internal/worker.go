package internal

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/imagehost"
	"github.com/vadiminshakov/balancecheck/internal/services/portfolio"
	"github.com/vadiminshakov/balancecheck/internal/services/report"
)

type positionSource interface {
	ByExchange(ctx context.Context) domain.ExchangePositions
}

type publisher interface {
	PublishPositionsByExchange(ctx context.Context, byExchange domain.ExchangePositions) error
	PublishTotal(ctx context.Context, value decimal.Decimal, currency string) error
	PublishURL(ctx context.Context, link string) error
}

type historyStore interface {
	Set(fiat string, ts time.Time, total decimal.Decimal) error
	Get(fiat string) ([]domain.BalancePoint, error)
}

type graphRenderer interface {
	Render(points []domain.BalancePoint, fiat string) (string, error)
}

// Report outcome of one run.
type Report struct {
	ByExchange domain.ExchangePositions
	Merged     domain.Positions
	Total      decimal.Decimal
	GraphPath  string
	GraphURL   string
}

// Worker one balance check: fetch, publish, persist, graph.
type Worker struct {
	fiat      string
	source    positionSource
	publisher publisher
	history   historyStore
	renderer  graphRenderer
	uploader  imagehost.Uploader
	dryRun    io.Writer
	now       func() time.Time
	logger    *zap.Logger
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithUploader publishes rendered graphs. Without it graphs stay local.
func WithUploader(u imagehost.Uploader) WorkerOption {
	return func(w *Worker) { w.uploader = u }
}

// WithDryRun prints the report to out instead of publishing or persisting anything.
func WithDryRun(out io.Writer) WorkerOption {
	return func(w *Worker) { w.dryRun = out }
}

// WithClock overrides the timestamp source of history points.
func WithClock(now func() time.Time) WorkerOption {
	return func(w *Worker) { w.now = now }
}

func WithWorkerLogger(l *zap.Logger) WorkerOption {
	return func(w *Worker) { w.logger = l }
}

func NewWorker(fiat string, source positionSource, pub publisher, history historyStore, renderer graphRenderer, opts ...WorkerOption) *Worker {
	w := &Worker{
		fiat:      fiat,
		source:    source,
		publisher: pub,
		history:   history,
		renderer:  renderer,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run executes the pipeline once. Exchange and messaging failures are logged
// and never fail a run; only persistence and graph steps can.
func (w *Worker) Run(ctx context.Context) (*Report, error) {
	byExchange := w.source.ByExchange(ctx)
	merged := portfolio.Merge(byExchange)
	r := &Report{
		ByExchange: byExchange,
		Merged:     merged,
		Total:      portfolio.TotalFiat(merged),
	}

	summary := portfolio.Summarize(merged)
	w.logger.Info("positions collected",
		zap.Strings("exchanges", byExchange.Names()),
		zap.Int("symbols", len(merged)),
		zap.String("spot", summary.Spot.StringFixed(2)),
		zap.String("margin", summary.Margin.StringFixed(2)),
		zap.String("total", r.Total.StringFixed(2)),
		zap.String("fiat", w.fiat))

	if w.dryRun != nil {
		if _, err := fmt.Fprint(w.dryRun, report.Terminal(byExchange, merged, w.fiat)); err != nil {
			return r, errors.Wrap(err, "print report")
		}
		return r, nil
	}

	if err := w.publisher.PublishPositionsByExchange(ctx, byExchange); err != nil {
		w.logger.Error("failed to publish positions", zap.Error(err))
	}
	if err := w.publisher.PublishTotal(ctx, r.Total, w.fiat); err != nil {
		w.logger.Error("failed to publish total", zap.Error(err))
	}

	if err := w.history.Set(w.fiat, w.now(), r.Total); err != nil {
		return r, errors.Wrap(err, "save balance history")
	}
	points, err := w.history.Get(w.fiat)
	if err != nil {
		return r, errors.Wrap(err, "load balance history")
	}

	r.GraphPath, err = w.renderer.Render(points, w.fiat)
	if err != nil {
		return r, errors.Wrap(err, "render balance graph")
	}
	if r.GraphPath == "" {
		w.logger.Info("no balance history to draw")
		return r, nil
	}
	if w.uploader == nil {
		w.logger.Info("graph upload disabled", zap.String("path", r.GraphPath))
		return r, nil
	}

	meta := imagehost.NewMetadata(points[0].Timestamp, points[len(points)-1].Timestamp)
	r.GraphURL, err = w.uploader.Upload(ctx, r.GraphPath, meta)
	if err != nil {
		return r, errors.Wrap(err, "upload balance graph")
	}
	if err := w.publisher.PublishURL(ctx, r.GraphURL); err != nil {
		w.logger.Error("failed to publish graph url", zap.Error(err))
		return r, nil
	}

	w.logger.Info("balance check published", zap.String("graph", r.GraphURL))
	return r, nil
}
