package exchange

import (
	"context"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/pricer"
)

const (
	BybitName       = "BYBIT"
	HyperliquidName = "HYPERLIQUID"
)

// BalanceAPI exchange that reports balances and lists its own tradable pairs.
type BalanceAPI interface {
	Balances(ctx context.Context) ([]domain.Balance, error)
	PriceSnapshot(ctx context.Context) (pricer.Snapshot, error)
}

// Routed prices every balance through the oracle over the exchange's own pairs.
// Bybit and Hyperliquid both fit this shape.
type Routed struct {
	base
	api BalanceAPI
}

// NewBybit unified account: wallet balance is spot, borrowed amount is negative margin.
func NewBybit(api BalanceAPI, s Settings) *Routed {
	return NewRouted(BybitName, api, s)
}

// NewHyperliquid spot tokens and perp positions. Settings.Oracle should use
// USDC as its stable unit, every mid is quoted in it.
func NewHyperliquid(api BalanceAPI, s Settings) *Routed {
	return NewRouted(HyperliquidName, api, s)
}

// NewRouted a nil api means the exchange is not configured.
func NewRouted(name string, api BalanceAPI, s Settings) *Routed {
	return &Routed{base: newBase(name, s), api: api}
}

func (r *Routed) GetPositions(ctx context.Context) domain.Positions {
	return r.isolate(ctx, r.fetch)
}

func (r *Routed) fetch(ctx context.Context) (domain.Positions, error) {
	if r.api == nil {
		return nil, ErrNotConfigured
	}

	snap, err := r.api.PriceSnapshot(ctx)
	if err != nil {
		return nil, transient(err, "price snapshot")
	}
	toFiat, err := r.multiplier(ctx)
	if err != nil {
		return nil, err
	}

	balances, err := r.api.Balances(ctx)
	if err != nil {
		return nil, transient(err, "balances")
	}

	acc := domain.NewAccumulator(r.fiat)
	if err := r.addRouted(ctx, acc, balances, snap, toFiat); err != nil {
		return nil, err
	}
	return acc.Positions(r.dust), nil
}
