package clients

import (
	"context"
	"net/http"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/pricer"
)

// NewBinanceClient creates a Binance SDK client. Empty credentials give a
// client usable for public market data only.
func NewBinanceClient(apiKey, apiSecret string, timeout time.Duration) *binance.Client {
	client := binance.NewClient(apiKey, apiSecret)
	if timeout > 0 {
		client.HTTPClient = &http.Client{Timeout: timeout}
	}
	return client
}

// BinanceGateway reads balances and prices from Binance.
type BinanceGateway struct {
	client *binance.Client
}

// NewBinanceGateway wraps a Binance SDK client.
func NewBinanceGateway(client *binance.Client) *BinanceGateway {
	return &BinanceGateway{client: client}
}

// SpotBalances returns free + locked amount per asset of the spot account.
func (g *BinanceGateway) SpotBalances(ctx context.Context) ([]domain.Balance, error) {
	account, err := g.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get binance account")
	}

	balances := make([]domain.Balance, 0, len(account.Balances))
	for _, b := range account.Balances {
		free, err := decimal.NewFromString(b.Free)
		if err != nil {
			return nil, errors.Wrapf(err, "parse free balance of %s", b.Asset)
		}
		locked, err := decimal.NewFromString(b.Locked)
		if err != nil {
			return nil, errors.Wrapf(err, "parse locked balance of %s", b.Asset)
		}
		balances = append(balances, domain.Balance{
			Asset:   b.Asset,
			Amount:  free.Add(locked),
			Account: domain.AccountTypeSpot,
		})
	}
	return balances, nil
}

// IsolatedMarginPairs returns the net value of every isolated margin pair in BTC.
func (g *BinanceGateway) IsolatedMarginPairs(ctx context.Context) ([]domain.IsolatedMarginPair, error) {
	account, err := g.client.NewGetIsolatedMarginAccountService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "get binance isolated margin account")
	}

	pairs := make([]domain.IsolatedMarginPair, 0, len(account.Assets))
	for _, a := range account.Assets {
		baseNet, err := decimal.NewFromString(a.BaseAsset.NetAssetOfBtc)
		if err != nil {
			return nil, errors.Wrapf(err, "parse net asset of %s", a.BaseAsset.Asset)
		}
		quoteNet, err := decimal.NewFromString(a.QuoteAsset.NetAssetOfBtc)
		if err != nil {
			return nil, errors.Wrapf(err, "parse net asset of %s", a.QuoteAsset.Asset)
		}
		pairs = append(pairs, domain.IsolatedMarginPair{
			Base:          a.BaseAsset.Asset,
			Quote:         a.QuoteAsset.Asset,
			BaseNetInRef:  baseNet,
			QuoteNetInRef: quoteNet,
		})
	}
	return pairs, nil
}

// PriceSnapshot lists tradable symbols from the 24h ticker and prices them
// lazily with the average price endpoint. The ticker's previous close prices
// are kept as the reference set for isolated margin conversion.
func (g *BinanceGateway) PriceSnapshot(ctx context.Context) (pricer.Snapshot, error) {
	stats, err := g.client.NewListPriceChangeStatsService().Do(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "list binance tickers")
	}

	symbols, prevClose := tickerPrices(stats)
	return pricer.WithReference(
		pricer.NewLazySnapshot(symbols, g.averagePrice),
		pricer.NewStaticSnapshot(prevClose),
	), nil
}

// tickerPrices symbols of every ticker and previous close of those that parse.
func tickerPrices(stats []*binance.PriceChangeStats) ([]string, map[string]decimal.Decimal) {
	symbols := make([]string, 0, len(stats))
	prevClose := make(map[string]decimal.Decimal, len(stats))
	for _, s := range stats {
		symbols = append(symbols, s.Symbol)
		if price, err := decimal.NewFromString(s.PrevClosePrice); err == nil {
			prevClose[s.Symbol] = price
		}
	}
	return symbols, prevClose
}

func (g *BinanceGateway) averagePrice(ctx context.Context, symbol string) (decimal.Decimal, error) {
	avg, err := g.client.NewAveragePriceService().Symbol(symbol).Do(ctx)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "get binance average price for %s", symbol)
	}
	return decimal.NewFromString(avg.Price)
}
