// Package portfolio combines positions reported by every exchange.
package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/balancecheck/internal/domain"
)

// Merge sums positions of the same symbol across exchanges field by field.
// Inputs are not modified and the result does not depend on their order.
func Merge(byExchange domain.ExchangePositions) domain.Positions {
	merged := make(domain.Positions)
	for _, r := range byExchange {
		for symbol, p := range r.Positions {
			if existing, ok := merged[symbol]; ok {
				merged[symbol] = existing.Add(p)
				continue
			}
			merged[symbol] = p
		}
	}
	return merged
}

// TotalFiat grand total of the positions in fiat.
func TotalFiat(positions domain.Positions) decimal.Decimal {
	return positions.TotalFiat()
}

// Breakdown totals of one scope split by account type.
type Breakdown struct {
	Spot   decimal.Decimal
	Margin decimal.Decimal
}

// Total spot plus margin.
func (b Breakdown) Total() decimal.Decimal {
	return b.Spot.Add(b.Margin)
}

// Summarize splits the fiat value of positions into spot and margin.
func Summarize(positions domain.Positions) Breakdown {
	b := Breakdown{Spot: decimal.Zero, Margin: decimal.Zero}
	for _, p := range positions {
		b.Spot = b.Spot.Add(p.SpotAmountInFiat)
		b.Margin = b.Margin.Add(p.MarginAmountInFiat)
	}
	return b
}
