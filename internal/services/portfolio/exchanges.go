package portfolio

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/exchange"
)

// Exchanges owns the configured adapters and exposes the aggregate views.
type Exchanges struct {
	adapters []exchange.Exchange
	timeout  time.Duration
	logger   *zap.Logger
}

// Option configures Exchanges.
type Option func(*Exchanges)

// WithAdapterTimeout bounds each adapter call; zero disables the bound.
func WithAdapterTimeout(d time.Duration) Option {
	return func(e *Exchanges) { e.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Exchanges) { e.logger = l }
}

// NewExchanges adapters are queried and reported in the given order.
func NewExchanges(adapters []exchange.Exchange, opts ...Option) *Exchanges {
	e := &Exchanges{
		adapters: append([]exchange.Exchange(nil), adapters...),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Names adapter names in configured order.
func (e *Exchanges) Names() []string {
	names := make([]string, 0, len(e.adapters))
	for _, a := range e.adapters {
		names = append(names, a.Name())
	}
	return names
}

// ByExchange queries every adapter in parallel and waits for all of them.
// Adapters never fail, so every configured exchange has an entry.
func (e *Exchanges) ByExchange(ctx context.Context) domain.ExchangePositions {
	results := make(domain.ExchangePositions, len(e.adapters))

	// adapters share nothing; each goroutine writes only its own slot
	var g errgroup.Group
	for i, a := range e.adapters {
		g.Go(func() error {
			callCtx := ctx
			if e.timeout > 0 {
				var cancel context.CancelFunc
				callCtx, cancel = context.WithTimeout(ctx, e.timeout)
				defer cancel()
			}

			started := time.Now()
			positions := a.GetPositions(callCtx)
			if positions == nil {
				positions = domain.Positions{}
			}
			e.logger.Debug("exchange done",
				zap.String("exchange", a.Name()),
				zap.Int("symbols", len(positions)),
				zap.Duration("took", time.Since(started)))

			results[i] = domain.ExchangeResult{Exchange: a.Name(), Positions: positions}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// All merged view over every exchange.
func (e *Exchanges) All(ctx context.Context) domain.Positions {
	return Merge(e.ByExchange(ctx))
}

// TotalFiatValue grand total of the merged view. Every position is already
// valued in the fiat the adapters were configured with; fiat is only checked
// against it.
func (e *Exchanges) TotalFiatValue(ctx context.Context, fiat string) decimal.Decimal {
	merged := e.All(ctx)
	for _, p := range merged {
		if p.Fiat != fiat {
			e.logger.Warn("position valued in another fiat",
				zap.String("symbol", p.Symbol), zap.String("position_fiat", p.Fiat), zap.String("fiat", fiat))
		}
	}
	return TotalFiat(merged)
}
