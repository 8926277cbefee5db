package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BalancePoint total fiat value of the portfolio at a moment.
type BalancePoint struct {
	Timestamp time.Time
	Total     decimal.Decimal
}

// NewBalancePoint creates a point truncated to whole seconds, the resolution history is keyed by.
func NewBalancePoint(ts time.Time, total decimal.Decimal) BalancePoint {
	return BalancePoint{
		Timestamp: time.Unix(ts.Unix(), 0).UTC(),
		Total:     total,
	}
}

// Series splits points into parallel x (unix seconds) and y (float) slices for plotting.
func Series(points []BalancePoint) ([]float64, []float64) {
	xs := make([]float64, len(points))
	ys := make([]float64, len(points))
	for i, p := range points {
		xs[i] = float64(p.Timestamp.Unix())
		ys[i] = p.Total.InexactFloat64()
	}
	return xs, ys
}
