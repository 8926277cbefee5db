package clients

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/balancecheck/internal/domain"
)

const (
	NewtonBaseURL = "https://api.newton.co"

	newtonBalancesPath = "/v1/balances"
)

// NewtonGateway reads balances from Newton.
type NewtonGateway struct {
	rest *RESTClient
}

// NewNewtonGateway rest must be signed with a NewtonSigner.
func NewNewtonGateway(rest *RESTClient) *NewtonGateway {
	return &NewtonGateway{rest: rest}
}

// Balances Newton returns a flat asset -> amount object.
func (g *NewtonGateway) Balances(ctx context.Context) ([]domain.Balance, error) {
	var raw map[string]decimal.Decimal
	if err := g.rest.Get(ctx, newtonBalancesPath, nil, &raw); err != nil {
		return nil, errors.Wrap(err, "get newton balances")
	}

	balances := make([]domain.Balance, 0, len(raw))
	for asset, amount := range raw {
		balances = append(balances, domain.Balance{Asset: asset, Amount: amount, Account: domain.AccountTypeSpot})
	}
	return balances, nil
}
