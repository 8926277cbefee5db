// Package exchange turns raw exchange account data into fiat-valued positions.
//
// Every adapter is self-contained: it fetches its own balances and price snapshot,
// and any failure inside it is logged and reported as an empty result so one
// exchange outage never hides the others.
package exchange

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/balancecheck/internal/domain"
	"github.com/vadiminshakov/balancecheck/internal/services/pricer"
)

var (
	// ErrNotConfigured credentials for the exchange are absent.
	ErrNotConfigured = errors.New("exchange not configured")
	// ErrTransientFetch network, rate-limit or parsing failure while talking to the exchange.
	ErrTransientFetch = errors.New("transient fetch failure")
)

// Exchange reports the positions held on one exchange.
type Exchange interface {
	Name() string
	// GetPositions never fails; an unconfigured or failing exchange yields an empty map.
	GetPositions(ctx context.Context) domain.Positions
}

// FiatConverter provides the multiplier from the stable unit to fiat.
type FiatConverter interface {
	StableToFiat(ctx context.Context, fiat string) (decimal.Decimal, error)
}

// Settings shared by all adapters.
type Settings struct {
	Fiat string
	// DustThreshold zero keeps every nonzero position.
	DustThreshold decimal.Decimal
	Oracle        *pricer.Oracle
	Converter     FiatConverter
	Logger        *zap.Logger
}

type base struct {
	name      string
	fiat      string
	dust      decimal.Decimal
	oracle    *pricer.Oracle
	converter FiatConverter
	logger    *zap.Logger
}

func newBase(name string, s Settings) base {
	logger := s.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	oracle := s.Oracle
	if oracle == nil {
		oracle = pricer.NewOracle(logger)
	}
	return base{
		name:      name,
		fiat:      s.Fiat,
		dust:      s.DustThreshold,
		oracle:    oracle,
		converter: s.Converter,
		logger:    logger.With(zap.String("exchange", name)),
	}
}

func (b *base) Name() string { return b.name }

// isolate runs fetch and converts every failure, panics included, into an empty result.
func (b *base) isolate(ctx context.Context, fetch func(ctx context.Context) (domain.Positions, error)) (positions domain.Positions) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("exchange adapter panicked",
				zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
			positions = domain.Positions{}
		}
	}()

	positions, err := fetch(ctx)
	switch {
	case errors.Is(err, ErrNotConfigured):
		b.logger.Warn("exchange is not configured, skipping")
		return domain.Positions{}
	case err != nil:
		b.logger.Error("failed to get positions", zap.Error(err))
		return domain.Positions{}
	}

	b.logger.Info("got positions",
		zap.Int("symbols", len(positions)),
		zap.String("total_fiat", positions.TotalFiat().StringFixed(2)),
		zap.String("fiat", b.fiat))
	return positions
}

// multiplier stable unit to fiat for this call.
func (b *base) multiplier(ctx context.Context) (decimal.Decimal, error) {
	if b.converter == nil {
		return decimal.Zero, errors.New("no fiat converter")
	}
	return b.converter.StableToFiat(ctx, b.fiat)
}

// addRouted values each balance through the oracle and accumulates it.
// Exact zero balances are skipped before any price lookup.
func (b *base) addRouted(ctx context.Context, acc *domain.Accumulator, balances []domain.Balance, snap pricer.Snapshot, toFiat decimal.Decimal) error {
	for _, bal := range balances {
		if bal.Amount.IsZero() {
			continue
		}
		unit, err := b.oracle.ValueInStableUnit(ctx, bal.Asset, snap)
		if err != nil {
			return transient(err, "price "+bal.Asset)
		}
		acc.Add(bal.Account, bal.Asset, bal.Amount, bal.Amount.Mul(unit).Mul(toFiat))
	}
	return nil
}

// addFiatPriced accumulates balances valued with prices already expressed in fiat.
// The fiat currency itself is worth one; assets without a price are skipped.
func (b *base) addFiatPriced(acc *domain.Accumulator, balances []domain.Balance, prices map[string]decimal.Decimal) {
	one := decimal.NewFromInt(1)
	for _, bal := range balances {
		if bal.Amount.IsZero() {
			continue
		}
		price, ok := prices[bal.Asset]
		if bal.Asset == b.fiat {
			price, ok = one, true
		}
		if !ok {
			b.logger.Warn("no fiat price for asset, skipping", zap.String("symbol", bal.Asset))
			continue
		}
		acc.Add(bal.Account, bal.Asset, bal.Amount, bal.Amount.Mul(price))
	}
}

type fetchError struct {
	op  string
	err error
}

func (e *fetchError) Error() string        { return fmt.Sprintf("%s: %v", e.op, e.err) }
func (e *fetchError) Unwrap() error        { return e.err }
func (e *fetchError) Is(target error) bool { return target == ErrTransientFetch }

// transient marks err as ErrTransientFetch while keeping its chain.
func transient(err error, op string) error {
	return &fetchError{op: op, err: err}
}
