// Package pricer values arbitrary assets in a stable intermediate unit using the
// pairs an exchange actually lists, routing through anchor assets when needed.
package pricer

import (
	"context"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	// DefaultStable stable unit every asset is valued in before fiat conversion.
	DefaultStable = "USDT"
	// DefaultReference unit isolated margin net assets are reported in.
	DefaultReference = "BTC"
)

// DefaultAnchors high-liquidity assets tried, in order, for two-hop routing.
var DefaultAnchors = []string{"BTC", "ETH"}

// ErrNoRoute no pair connects the asset to the requested unit.
var ErrNoRoute = errors.New("no price route")

// Oracle values assets in a stable unit from a per-exchange Snapshot.
type Oracle struct {
	stable  string
	pegged  map[string]struct{}
	anchors []string
	logger  *zap.Logger
}

// OracleOption configures an Oracle.
type OracleOption func(*Oracle)

// WithStable sets the stable unit quoted pairs are looked up against.
func WithStable(stable string) OracleOption {
	return func(o *Oracle) {
		o.stable = stable
		o.pegged[stable] = struct{}{}
	}
}

// WithPegged declares assets valued at exactly one stable unit.
func WithPegged(symbols ...string) OracleOption {
	return func(o *Oracle) {
		for _, s := range symbols {
			o.pegged[s] = struct{}{}
		}
	}
}

// WithAnchors replaces the anchor list.
func WithAnchors(anchors ...string) OracleOption {
	return func(o *Oracle) {
		o.anchors = append([]string(nil), anchors...)
	}
}

// NewOracle creates an oracle valuing assets in USDT routed through BTC then ETH by default.
func NewOracle(logger *zap.Logger, opts ...OracleOption) *Oracle {
	if logger == nil {
		logger = zap.NewNop()
	}
	o := &Oracle{
		stable:  DefaultStable,
		pegged:  map[string]struct{}{DefaultStable: {}},
		anchors: append([]string(nil), DefaultAnchors...),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Stable returns the stable unit.
func (o *Oracle) Stable() string {
	return o.stable
}

// ValueInStableUnit returns the value of one unit of symbol in the stable unit.
//
// Lookup order: pegged asset, direct SYMBOL+STABLE pair, then SYMBOL+ANCHOR times
// ANCHOR+STABLE for the first anchor the symbol is quoted in. Once an anchor is
// picked a missing ANCHOR+STABLE pair is ErrNoRoute. When nothing matches the asset is valued at 1,
// which overprices or underprices unlisted assets; it is kept for compatibility with
// existing balance history and logged so it can be spotted.
func (o *Oracle) ValueInStableUnit(ctx context.Context, symbol string, snap Snapshot) (decimal.Decimal, error) {
	if _, ok := o.pegged[symbol]; ok {
		return decimal.NewFromInt(1), nil
	}

	direct := symbol + o.stable
	if snap.HasPair(direct) {
		return snap.Price(ctx, direct)
	}

	for _, anchor := range o.anchors {
		if anchor == symbol {
			continue
		}
		viaAnchor := symbol + anchor
		if !snap.HasPair(viaAnchor) {
			continue
		}

		first, err := snap.Price(ctx, viaAnchor)
		if err != nil {
			return decimal.Zero, err
		}
		if _, ok := o.pegged[anchor]; ok {
			return first, nil
		}
		anchorToStable := anchor + o.stable
		if !snap.HasPair(anchorToStable) {
			return decimal.Zero, errors.Wrapf(ErrNoRoute, "%s is quoted in %s but %s is not listed", symbol, anchor, anchorToStable)
		}
		second, err := snap.Price(ctx, anchorToStable)
		if err != nil {
			return decimal.Zero, err
		}
		return first.Mul(second), nil
	}

	o.logger.Warn("no price route, valuing asset at one stable unit",
		zap.String("symbol", symbol), zap.String("stable", o.stable))
	return decimal.NewFromInt(1), nil
}

// ToNative converts an amount expressed in reference units into units of symbol,
// dividing by the symbol/reference rate. It fails with ErrNoRoute when the snapshot
// does not quote symbol against reference.
func (o *Oracle) ToNative(ctx context.Context, amountInRef decimal.Decimal, symbol, reference string, snap Snapshot) (decimal.Decimal, error) {
	if symbol == reference {
		return amountInRef, nil
	}

	pair := symbol + reference
	if !snap.HasPair(pair) {
		return decimal.Zero, errors.Wrapf(ErrNoRoute, "%s is not quoted in %s", symbol, reference)
	}

	rate, err := snap.Price(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}
	if rate.IsZero() {
		return decimal.Zero, errors.Wrapf(ErrNoRoute, "%s has zero price in %s", symbol, reference)
	}

	return amountInRef.Div(rate), nil
}
