package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// DustThreshold balances at or below this amount are treated as zero.
var DustThreshold = decimal.New(1, -7)

// Position holdings of one asset, either on a single exchange or merged across all of them.
// Fiat equivalents are computed once with the prices in effect at creation time.
type Position struct {
	Symbol             string          `json:"symbol"`
	Fiat               string          `json:"fiat"`
	SpotAmount         decimal.Decimal `json:"spot_amount"`
	SpotAmountInFiat   decimal.Decimal `json:"spot_amount_in_fiat"`
	MarginAmount       decimal.Decimal `json:"margin_amount"`
	MarginAmountInFiat decimal.Decimal `json:"margin_amount_in_fiat"`
}

// NewPosition creates an empty position for the symbol.
func NewPosition(symbol, fiat string) Position {
	return Position{
		Symbol:             symbol,
		Fiat:               fiat,
		SpotAmount:         decimal.Zero,
		SpotAmountInFiat:   decimal.Zero,
		MarginAmount:       decimal.Zero,
		MarginAmountInFiat: decimal.Zero,
	}
}

// TotalFiat returns spot plus margin value in fiat.
func (p Position) TotalFiat() decimal.Decimal {
	return p.SpotAmountInFiat.Add(p.MarginAmountInFiat)
}

// Add returns the field-wise sum of two positions of the same symbol.
func (p Position) Add(o Position) Position {
	fiat := p.Fiat
	if fiat == "" {
		fiat = o.Fiat
	}
	symbol := p.Symbol
	if symbol == "" {
		symbol = o.Symbol
	}

	return Position{
		Symbol:             symbol,
		Fiat:               fiat,
		SpotAmount:         p.SpotAmount.Add(o.SpotAmount),
		SpotAmountInFiat:   p.SpotAmountInFiat.Add(o.SpotAmountInFiat),
		MarginAmount:       p.MarginAmount.Add(o.MarginAmount),
		MarginAmountInFiat: p.MarginAmountInFiat.Add(o.MarginAmountInFiat),
	}
}

// withoutDust zeroes the spot part when it is at or below threshold and the margin part
// when its magnitude is. Margin may legitimately be negative (borrowed exposure).
func (p Position) withoutDust(threshold decimal.Decimal) (Position, bool) {
	if p.SpotAmount.LessThanOrEqual(threshold) {
		p.SpotAmount = decimal.Zero
		p.SpotAmountInFiat = decimal.Zero
	}
	if p.MarginAmount.Abs().LessThanOrEqual(threshold) {
		p.MarginAmount = decimal.Zero
		p.MarginAmountInFiat = decimal.Zero
	}

	return p, !p.SpotAmount.IsZero() || !p.MarginAmount.IsZero()
}

// Positions positions keyed by symbol.
type Positions map[string]Position

// TotalFiat sums TotalFiat over all positions.
func (ps Positions) TotalFiat() decimal.Decimal {
	total := decimal.Zero
	for _, p := range ps {
		total = total.Add(p.TotalFiat())
	}
	return total
}

// Symbols returns the keys in lexical order.
func (ps Positions) Symbols() []string {
	symbols := make([]string, 0, len(ps))
	for s := range ps {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// Clone returns a shallow copy; Position is a value type so the copy is independent.
func (ps Positions) Clone() Positions {
	out := make(Positions, len(ps))
	for k, v := range ps {
		out[k] = v
	}
	return out
}

// ExchangeResult positions reported by one exchange.
type ExchangeResult struct {
	Exchange  string
	Positions Positions
}

// ExchangePositions per-exchange results in the order the exchanges were configured.
type ExchangePositions []ExchangeResult

// Get returns the positions of the named exchange, or nil when it is unknown.
func (e ExchangePositions) Get(exchange string) Positions {
	for _, r := range e {
		if r.Exchange == exchange {
			return r.Positions
		}
	}
	return nil
}

// Names returns exchange names in configured order.
func (e ExchangePositions) Names() []string {
	names := make([]string, 0, len(e))
	for _, r := range e {
		names = append(names, r.Exchange)
	}
	return names
}

// TotalFiat sums the fiat value of every position on every exchange.
func (e ExchangePositions) TotalFiat() decimal.Decimal {
	total := decimal.Zero
	for _, r := range e {
		total = total.Add(r.Positions.TotalFiat())
	}
	return total
}
