package exchange

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/pricer"
)

const BinanceName = "BINANCE"

// BinanceAPI account and market data used by the Binance adapter.
type BinanceAPI interface {
	SpotBalances(ctx context.Context) ([]domain.Balance, error)
	IsolatedMarginPairs(ctx context.Context) ([]domain.IsolatedMarginPair, error)
	PriceSnapshot(ctx context.Context) (pricer.Snapshot, error)
}

// Binance spot plus isolated margin.
type Binance struct {
	base
	api BinanceAPI
}

// NewBinance a nil api means the exchange is not configured.
func NewBinance(api BinanceAPI, s Settings) *Binance {
	return &Binance{base: newBase(BinanceName, s), api: api}
}

func (b *Binance) GetPositions(ctx context.Context) domain.Positions {
	return b.isolate(ctx, b.fetch)
}

func (b *Binance) fetch(ctx context.Context) (domain.Positions, error) {
	if b.api == nil {
		return nil, ErrNotConfigured
	}

	snap, err := b.api.PriceSnapshot(ctx)
	if err != nil {
		return nil, transient(err, "price snapshot")
	}
	toFiat, err := b.multiplier(ctx)
	if err != nil {
		return nil, err
	}

	acc := domain.NewAccumulator(b.fiat)

	spot, err := b.api.SpotBalances(ctx)
	if err != nil {
		return nil, transient(err, "spot balances")
	}
	if err := b.addRouted(ctx, acc, spot, snap, toFiat); err != nil {
		return nil, err
	}

	pairs, err := b.api.IsolatedMarginPairs(ctx)
	if err != nil {
		return nil, transient(err, "isolated margin pairs")
	}
	ref := pricer.ReferenceOf(snap)
	for _, pair := range pairs {
		net := pair.NetInRef()
		if net.IsZero() {
			continue
		}

		// net value of the pair is attributed to its base asset
		amount, err := b.oracle.ToNative(ctx, net, pair.Base, pricer.DefaultReference, ref)
		if err != nil {
			return nil, errors.Wrapf(err, "isolated margin %s%s", pair.Base, pair.Quote)
		}
		unit, err := b.oracle.ValueInStableUnit(ctx, pair.Base, snap)
		if err != nil {
			return nil, transient(err, "price "+pair.Base)
		}
		acc.AddMargin(pair.Base, amount, amount.Mul(unit).Mul(toFiat))
	}

	return acc.Positions(b.dust), nil
}
