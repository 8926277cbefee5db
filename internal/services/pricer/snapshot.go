package pricer

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// Snapshot tradable pairs of one exchange captured once per adapter call.
// It must never be shared between exchanges.
type Snapshot interface {
	// HasPair reports whether the concatenated pair symbol (e.g. "ETHBTC") is tradable.
	HasPair(symbol string) bool
	// Price returns the price of one unit of the pair's base asset in its quote asset.
	Price(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// StaticSnapshot snapshot whose prices were all fetched up front (tickers, mids).
type StaticSnapshot struct {
	prices map[string]decimal.Decimal
}

// NewStaticSnapshot creates a snapshot from pair symbol -> price.
func NewStaticSnapshot(prices map[string]decimal.Decimal) *StaticSnapshot {
	cp := make(map[string]decimal.Decimal, len(prices))
	for k, v := range prices {
		cp[k] = v
	}
	return &StaticSnapshot{prices: cp}
}

func (s *StaticSnapshot) HasPair(symbol string) bool {
	_, ok := s.prices[symbol]
	return ok
}

func (s *StaticSnapshot) Price(_ context.Context, symbol string) (decimal.Decimal, error) {
	p, ok := s.prices[symbol]
	if !ok {
		return decimal.Zero, errors.Wrapf(ErrNoRoute, "pair %s is not in snapshot", symbol)
	}
	return p, nil
}

// Len number of pairs.
func (s *StaticSnapshot) Len() int {
	return len(s.prices)
}

// ReferenceSnapshot live prices plus a second price set used only to turn
// reference-denominated amounts back into native units.
type ReferenceSnapshot struct {
	Snapshot
	reference Snapshot
}

// WithReference pairs a live snapshot with its reference prices.
func WithReference(live, reference Snapshot) *ReferenceSnapshot {
	return &ReferenceSnapshot{Snapshot: live, reference: reference}
}

func (s *ReferenceSnapshot) Reference() Snapshot {
	return s.reference
}

// ReferenceOf reference prices of snap, or snap itself when it carries none.
func ReferenceOf(snap Snapshot) Snapshot {
	if r, ok := snap.(interface{ Reference() Snapshot }); ok && r.Reference() != nil {
		return r.Reference()
	}
	return snap
}

// PriceFunc fetches the price of a pair on demand.
type PriceFunc func(ctx context.Context, symbol string) (decimal.Decimal, error)

// LazySnapshot knows the tradable pair set up front and fetches prices on first use.
// Fetched prices are memoized for the lifetime of the snapshot.
type LazySnapshot struct {
	pairs map[string]struct{}
	fetch PriceFunc

	mu    sync.Mutex
	cache map[string]decimal.Decimal
}

// NewLazySnapshot creates a snapshot over the given pair symbols.
func NewLazySnapshot(pairs []string, fetch PriceFunc) *LazySnapshot {
	set := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		set[p] = struct{}{}
	}
	return &LazySnapshot{
		pairs: set,
		fetch: fetch,
		cache: make(map[string]decimal.Decimal),
	}
}

func (s *LazySnapshot) HasPair(symbol string) bool {
	_, ok := s.pairs[symbol]
	return ok
}

func (s *LazySnapshot) Price(ctx context.Context, symbol string) (decimal.Decimal, error) {
	if !s.HasPair(symbol) {
		return decimal.Zero, errors.Wrapf(ErrNoRoute, "pair %s is not in snapshot", symbol)
	}

	s.mu.Lock()
	p, ok := s.cache[symbol]
	s.mu.Unlock()
	if ok {
		return p, nil
	}

	p, err := s.fetch(ctx, symbol)
	if err != nil {
		return decimal.Zero, errors.Wrapf(err, "fetch price of %s", symbol)
	}

	s.mu.Lock()
	s.cache[symbol] = p
	s.mu.Unlock()

	return p, nil
}
