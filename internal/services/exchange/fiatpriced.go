package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/balancecheck/internal/domain"
)

const (
	CoinbaseName = "COINBASE"
	KucoinName   = "KUCOIN"
)

// FiatPricedAPI exchange that quotes its assets directly in fiat.
type FiatPricedAPI interface {
	Balances(ctx context.Context) ([]domain.Balance, error)
	FiatPrices(ctx context.Context, fiat string) (map[string]decimal.Decimal, error)
}

// FiatPriced values balances with the exchange's own fiat prices, no stable
// unit routing involved.
type FiatPriced struct {
	base
	api FiatPricedAPI
}

// NewCoinbase paginated wallet accounts, all spot.
func NewCoinbase(api FiatPricedAPI, s Settings) *FiatPriced {
	return &FiatPriced{base: newBase(CoinbaseName, s), api: api}
}

// NewKucoin trade and main accounts are spot, margin accounts are margin.
func NewKucoin(api FiatPricedAPI, s Settings) *FiatPriced {
	return &FiatPriced{base: newBase(KucoinName, s), api: api}
}

func (f *FiatPriced) GetPositions(ctx context.Context) domain.Positions {
	return f.isolate(ctx, f.fetch)
}

func (f *FiatPriced) fetch(ctx context.Context) (domain.Positions, error) {
	if f.api == nil {
		return nil, ErrNotConfigured
	}

	prices, err := f.api.FiatPrices(ctx, f.fiat)
	if err != nil {
		return nil, transient(err, "fiat prices")
	}
	balances, err := f.api.Balances(ctx)
	if err != nil {
		return nil, transient(err, "balances")
	}

	acc := domain.NewAccumulator(f.fiat)
	f.addFiatPriced(acc, balances, prices)
	return acc.Positions(f.dust), nil
}
