package clients

import (
	"context"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/balancecheck/internal/domain"
)

const (
	CoinbaseBaseURL = "https://api.coinbase.com"

	coinbaseAccountsPath      = "/v2/accounts"
	coinbaseExchangeRatesPath = "/v2/exchange-rates"
	coinbaseMaxPages          = 100
)

type coinbaseAccountsResponse struct {
	Pagination struct {
		NextURI string `json:"next_uri"`
	} `json:"pagination"`
	Data []struct {
		Balance struct {
			Amount   decimal.Decimal `json:"amount"`
			Currency string          `json:"currency"`
		} `json:"balance"`
	} `json:"data"`
}

type coinbaseRatesResponse struct {
	Data struct {
		Currency string                     `json:"currency"`
		Rates    map[string]decimal.Decimal `json:"rates"`
	} `json:"data"`
}

// CoinbaseGateway reads wallet accounts and fiat exchange rates from Coinbase.
type CoinbaseGateway struct {
	rest *RESTClient
}

// NewCoinbaseGateway rest must be signed with a CoinbaseSigner.
func NewCoinbaseGateway(rest *RESTClient) *CoinbaseGateway {
	return &CoinbaseGateway{rest: rest}
}

// Balances walks every page of the accounts listing.
func (g *CoinbaseGateway) Balances(ctx context.Context) ([]domain.Balance, error) {
	var balances []domain.Balance

	path, query := coinbaseAccountsPath, url.Values{"limit": {"100"}}
	for page := 0; page < coinbaseMaxPages; page++ {
		var resp coinbaseAccountsResponse
		if err := g.rest.Get(ctx, path, query, &resp); err != nil {
			return nil, errors.Wrap(err, "list coinbase accounts")
		}

		for _, a := range resp.Data {
			balances = append(balances, domain.Balance{
				Asset:   a.Balance.Currency,
				Amount:  a.Balance.Amount,
				Account: domain.AccountTypeSpot,
			})
		}

		if resp.Pagination.NextURI == "" {
			return balances, nil
		}
		next, err := url.Parse(resp.Pagination.NextURI)
		if err != nil {
			return nil, errors.Wrap(err, "parse coinbase next_uri")
		}
		path, query = next.Path, next.Query()
	}

	return nil, errors.Errorf("coinbase accounts exceed %d pages", coinbaseMaxPages)
}

// FiatPrices price of one unit of every quoted asset in fiat. Coinbase quotes
// how much of the asset one fiat unit buys, so rates are inverted.
func (g *CoinbaseGateway) FiatPrices(ctx context.Context, fiat string) (map[string]decimal.Decimal, error) {
	var resp coinbaseRatesResponse
	if err := g.rest.Get(ctx, coinbaseExchangeRatesPath, url.Values{"currency": {fiat}}, &resp); err != nil {
		return nil, errors.Wrap(err, "get coinbase exchange rates")
	}

	prices := make(map[string]decimal.Decimal, len(resp.Data.Rates))
	for asset, rate := range resp.Data.Rates {
		if rate.IsZero() {
			continue
		}
		prices[asset] = decimal.NewFromInt(1).Div(rate)
	}
	return prices, nil
}
