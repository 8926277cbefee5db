package exchange

import (
	"context"

	"github.com/pkg/errors"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/pricer"
)

const (
	NewtonName = "NEWTON"
	// NewtonFiat Newton only holds Canadian accounts.
	NewtonFiat = "CAD"
)

// BalancesAPI balance listing only.
type BalancesAPI interface {
	Balances(ctx context.Context) ([]domain.Balance, error)
}

// SnapshotSource public market data of another exchange.
type SnapshotSource interface {
	PriceSnapshot(ctx context.Context) (pricer.Snapshot, error)
}

// Newton has no usable price endpoint, balances are priced with public
// Binance pairs. The CAD cash balance itself is not reported.
type Newton struct {
	base
	api    BalancesAPI
	prices SnapshotSource
}

// NewNewton a nil api, or a fiat other than CAD, means the exchange is not configured.
func NewNewton(api BalancesAPI, prices SnapshotSource, s Settings) *Newton {
	return &Newton{base: newBase(NewtonName, s), api: api, prices: prices}
}

func (n *Newton) GetPositions(ctx context.Context) domain.Positions {
	return n.isolate(ctx, n.fetch)
}

func (n *Newton) fetch(ctx context.Context) (domain.Positions, error) {
	if n.api == nil || n.fiat != NewtonFiat {
		return nil, ErrNotConfigured
	}
	if n.prices == nil {
		return nil, errors.New("newton requires a price source")
	}

	snap, err := n.prices.PriceSnapshot(ctx)
	if err != nil {
		return nil, transient(err, "price snapshot")
	}
	toFiat, err := n.multiplier(ctx)
	if err != nil {
		return nil, err
	}

	balances, err := n.api.Balances(ctx)
	if err != nil {
		return nil, transient(err, "balances")
	}

	crypto := make([]domain.Balance, 0, len(balances))
	for _, b := range balances {
		if b.Asset != n.fiat {
			crypto = append(crypto, b)
		}
	}

	acc := domain.NewAccumulator(n.fiat)
	if err := n.addRouted(ctx, acc, crypto, snap, toFiat); err != nil {
		return nil, err
	}
	return acc.Positions(n.dust), nil
}
