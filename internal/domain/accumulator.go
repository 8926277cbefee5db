package domain

import "github.com/shopspring/decimal"

// Accumulator collects balances of one exchange call, possibly several per symbol
// (e.g. isolated margin pairs sharing a base asset), and freezes them into Positions.
type Accumulator struct {
	fiat      string
	positions map[string]*Position
}

// NewAccumulator creates an accumulator for balances valued in fiat.
func NewAccumulator(fiat string) *Accumulator {
	return &Accumulator{
		fiat:      fiat,
		positions: make(map[string]*Position),
	}
}

func (a *Accumulator) position(symbol string) *Position {
	p, ok := a.positions[symbol]
	if !ok {
		np := NewPosition(symbol, a.fiat)
		p = &np
		a.positions[symbol] = p
	}
	return p
}

// Add accumulates amount into the spot or margin side of the symbol.
func (a *Accumulator) Add(account AccountType, symbol string, amount, amountInFiat decimal.Decimal) {
	if account == AccountTypeMargin {
		a.AddMargin(symbol, amount, amountInFiat)
		return
	}
	a.AddSpot(symbol, amount, amountInFiat)
}

// AddSpot accumulates an owned balance.
func (a *Accumulator) AddSpot(symbol string, amount, amountInFiat decimal.Decimal) {
	p := a.position(symbol)
	p.SpotAmount = p.SpotAmount.Add(amount)
	p.SpotAmountInFiat = p.SpotAmountInFiat.Add(amountInFiat)
}

// AddMargin accumulates a margin exposure, negative when borrowed.
func (a *Accumulator) AddMargin(symbol string, amount, amountInFiat decimal.Decimal) {
	p := a.position(symbol)
	p.MarginAmount = p.MarginAmount.Add(amount)
	p.MarginAmountInFiat = p.MarginAmountInFiat.Add(amountInFiat)
}

// Len number of symbols seen so far, dust included.
func (a *Accumulator) Len() int {
	return len(a.positions)
}

// Positions applies dust filtering and returns the result.
func (a *Accumulator) Positions(threshold decimal.Decimal) Positions {
	out := make(Positions, len(a.positions))
	for symbol, p := range a.positions {
		if kept, ok := p.withoutDust(threshold); ok {
			out[symbol] = kept
		}
	}
	return out
}
