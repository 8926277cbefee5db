package pricer

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestOracle_ValueInStableUnit(t *testing.T) {
	snap := NewStaticSnapshot(map[string]decimal.Decimal{
		"BTCUSDT":  d("50000"),
		"ETHUSDT":  d("3000"),
		"SOLUSDT":  d("150"),
		"BETHBTC":  d("0.05"),
		"BETHETH":  d("0.99"),
		"STETHETH": d("0.98"),
	})
	oracle := NewOracle(zap.NewNop())

	tests := []struct {
		name     string
		symbol   string
		expected decimal.Decimal
	}{
		{name: "stable unit itself", symbol: "USDT", expected: d("1")},
		{name: "direct pair", symbol: "SOL", expected: d("150")},
		{name: "anchor itself has direct pair", symbol: "BTC", expected: d("50000")},
		{name: "first anchor wins over second", symbol: "BETH", expected: d("2500")},
		{name: "second anchor", symbol: "STETH", expected: d("2940")},
		{name: "no route falls back to one", symbol: "DELISTED", expected: d("1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := oracle.ValueInStableUnit(context.Background(), tt.symbol, snap)
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(v), "expected %s, got %s", tt.expected, v)
		})
	}
}

func TestOracle_RoutesOnlyThroughAnchorWhenDirectMissing(t *testing.T) {
	symbolAnchor := d("0.0123")
	anchorStable := d("61234.5")
	snap := NewStaticSnapshot(map[string]decimal.Decimal{
		"XYZBTC":  symbolAnchor,
		"BTCUSDT": anchorStable,
	})

	v, err := NewOracle(nil).ValueInStableUnit(context.Background(), "XYZ", snap)
	require.NoError(t, err)
	assert.True(t, symbolAnchor.Mul(anchorStable).Equal(v))
}

func TestOracle_AnchorWithoutStablePair(t *testing.T) {
	snap := NewStaticSnapshot(map[string]decimal.Decimal{
		"XYZETH":  d("0.5"),
		"BTCUSDT": d("50000"),
	})

	_, err := NewOracle(nil).ValueInStableUnit(context.Background(), "XYZ", snap)
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestOracle_PeggedAnchorNeedsNoSecondHop(t *testing.T) {
	snap := NewStaticSnapshot(map[string]decimal.Decimal{"XYZUSDT": d("2")})
	oracle := NewOracle(nil, WithStable("USDC"), WithPegged("USDT"), WithAnchors("USDT"))

	v, err := oracle.ValueInStableUnit(context.Background(), "XYZ", snap)
	require.NoError(t, err)
	assert.True(t, v.Equal(d("2")))
}

func TestOracle_CustomStableAndPegged(t *testing.T) {
	snap := NewStaticSnapshot(map[string]decimal.Decimal{
		"HYPEUSDC": d("25"),
	})
	oracle := NewOracle(zap.NewNop(), WithStable("USDC"), WithPegged("USDT", "USDE"), WithAnchors())

	v, err := oracle.ValueInStableUnit(context.Background(), "HYPE", snap)
	require.NoError(t, err)
	assert.True(t, v.Equal(d("25")))

	for _, s := range []string{"USDC", "USDT", "USDE"} {
		v, err = oracle.ValueInStableUnit(context.Background(), s, snap)
		require.NoError(t, err)
		assert.True(t, v.Equal(d("1")), s)
	}
	assert.Equal(t, "USDC", oracle.Stable())
}

type failingSnapshot struct{}

func (failingSnapshot) HasPair(string) bool { return true }
func (failingSnapshot) Price(context.Context, string) (decimal.Decimal, error) {
	return decimal.Zero, errors.New("429 too many requests")
}

func TestOracle_PropagatesPriceErrors(t *testing.T) {
	_, err := NewOracle(nil).ValueInStableUnit(context.Background(), "ETH", failingSnapshot{})
	assert.Error(t, err)
}

func TestOracle_ToNative(t *testing.T) {
	snap := NewStaticSnapshot(map[string]decimal.Decimal{
		"ETHBTC": d("0.05"),
		"ZROBTC": decimal.Zero,
	})
	oracle := NewOracle(nil)
	ctx := context.Background()

	amount, err := oracle.ToNative(ctx, d("0.1"), "ETH", "BTC", snap)
	require.NoError(t, err)
	assert.True(t, amount.Equal(d("2")), "got %s", amount)

	amount, err = oracle.ToNative(ctx, d("0.1"), "BTC", "BTC", snap)
	require.NoError(t, err)
	assert.True(t, amount.Equal(d("0.1")))

	_, err = oracle.ToNative(ctx, d("0.1"), "DOGE", "BTC", snap)
	assert.ErrorIs(t, err, ErrNoRoute)

	_, err = oracle.ToNative(ctx, d("0.1"), "ZRO", "BTC", snap)
	assert.ErrorIs(t, err, ErrNoRoute)
}
