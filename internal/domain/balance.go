package domain

import "github.com/shopspring/decimal"

// Balance raw holding of one asset as reported by an exchange, before pricing.
type Balance struct {
	Asset   string
	Amount  decimal.Decimal
	Account AccountType
}

// IsolatedMarginPair net value of one isolated margin pair, both legs
// expressed in the exchange reference asset (BTC on Binance).
type IsolatedMarginPair struct {
	Base          string
	Quote         string
	BaseNetInRef  decimal.Decimal
	QuoteNetInRef decimal.Decimal
}

// NetInRef net pair value in the reference asset.
func (p IsolatedMarginPair) NetInRef() decimal.Decimal {
	return p.BaseNetInRef.Add(p.QuoteNetInRef)
}
