package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/hirokisan/bybit/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/pricer"
)

func NewBybitClient(apiKey, apiSecret string, timeout time.Duration) *bybit.Client {
	client := bybit.NewClient().WithAuth(apiKey, apiSecret)
	if timeout > 0 {
		client = client.WithHTTPClient(&http.Client{Timeout: timeout})
	}

	return client
}

// BybitGateway reads the unified trading account and spot tickers from Bybit.
type BybitGateway struct {
	client *bybit.Client
}

func NewBybitGateway(client *bybit.Client) *BybitGateway {
	return &BybitGateway{client: client}
}

// Balances reports wallet balance as spot and borrowed amount as negative margin.
// The SDK is synchronous, ctx is only checked before the call.
func (g *BybitGateway) Balances(ctx context.Context) ([]domain.Balance, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := g.client.V5().Account().GetWalletBalance(bybit.AccountTypeV5("UNIFIED"), nil)
	if err != nil {
		return nil, errors.Wrap(err, "get bybit wallet balance")
	}

	var balances []domain.Balance
	for _, account := range res.Result.List {
		for _, coin := range account.Coin {
			asset := string(coin.Coin)

			wallet, err := parseOptionalDecimal(coin.WalletBalance)
			if err != nil {
				return nil, errors.Wrapf(err, "parse wallet balance of %s", asset)
			}
			if !wallet.IsZero() {
				balances = append(balances, domain.Balance{Asset: asset, Amount: wallet, Account: domain.AccountTypeSpot})
			}

			borrowed, err := parseOptionalDecimal(coin.BorrowAmount)
			if err != nil {
				return nil, errors.Wrapf(err, "parse borrow amount of %s", asset)
			}
			if !borrowed.IsZero() {
				balances = append(balances, domain.Balance{Asset: asset, Amount: borrowed.Neg(), Account: domain.AccountTypeMargin})
			}
		}
	}
	return balances, nil
}

// PriceSnapshot fetches all spot tickers once; last traded price is used.
func (g *BybitGateway) PriceSnapshot(ctx context.Context) (pricer.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res, err := g.client.V5().Market().GetTickers(bybit.V5GetTickersParam{
		Category: "spot",
	})
	if err != nil {
		return nil, errors.Wrap(err, "get bybit spot tickers")
	}
	if res.Result.Spot == nil {
		return nil, errors.New("bybit API returned no spot tickers")
	}

	prices := make(map[string]decimal.Decimal, len(res.Result.Spot.List))
	for _, t := range res.Result.Spot.List {
		price, err := decimal.NewFromString(t.LastPrice)
		if err != nil {
			continue
		}
		prices[string(t.Symbol)] = price
	}
	return pricer.NewStaticSnapshot(prices), nil
}

// bybit reports empty strings for unset numeric fields
func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
