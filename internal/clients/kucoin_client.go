package clients

import (
	"context"
	"encoding/json"
	"net/url"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/balancecheck/internal/domain"
)

const (
	KucoinBaseURL = "https://api.kucoin.com"

	kucoinAccountsPath = "/api/v1/accounts"
	kucoinPricesPath   = "/api/v1/prices"
	kucoinSuccessCode  = "200000"
)

// KuCoin wraps every payload in {"code": ..., "msg": ..., "data": ...}.
type kucoinEnvelope struct {
	Code string          `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type kucoinAccount struct {
	Currency string          `json:"currency"`
	Type     string          `json:"type"`
	Balance  decimal.Decimal `json:"balance"`
}

// KucoinGateway reads accounts and fiat prices from KuCoin.
type KucoinGateway struct {
	rest *RESTClient
}

// NewKucoinGateway rest must be signed with a KucoinSigner.
func NewKucoinGateway(rest *RESTClient) *KucoinGateway {
	return &KucoinGateway{rest: rest}
}

// Balances maps trade and main accounts to spot, margin accounts to margin.
// Other account types are ignored.
func (g *KucoinGateway) Balances(ctx context.Context) ([]domain.Balance, error) {
	var accounts []kucoinAccount
	if err := g.get(ctx, kucoinAccountsPath, nil, &accounts); err != nil {
		return nil, errors.Wrap(err, "list kucoin accounts")
	}

	var balances []domain.Balance
	for _, a := range accounts {
		var account domain.AccountType
		switch a.Type {
		case "trade", "main":
			account = domain.AccountTypeSpot
		case "margin":
			account = domain.AccountTypeMargin
		default:
			continue
		}
		balances = append(balances, domain.Balance{Asset: a.Currency, Amount: a.Balance, Account: account})
	}
	return balances, nil
}

// FiatPrices price of one unit of every listed asset in fiat.
func (g *KucoinGateway) FiatPrices(ctx context.Context, fiat string) (map[string]decimal.Decimal, error) {
	var prices map[string]decimal.Decimal
	if err := g.get(ctx, kucoinPricesPath, url.Values{"base": {fiat}}, &prices); err != nil {
		return nil, errors.Wrap(err, "get kucoin fiat prices")
	}
	return prices, nil
}

func (g *KucoinGateway) get(ctx context.Context, path string, query url.Values, out any) error {
	var env kucoinEnvelope
	if err := g.rest.Get(ctx, path, query, &env); err != nil {
		return err
	}
	if env.Code != kucoinSuccessCode {
		return errors.Errorf("kucoin error %s: %s", env.Code, env.Msg)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.Wrap(err, "decode kucoin data")
	}
	return nil
}
