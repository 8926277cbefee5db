package report

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/balancecheck/internal/domain"
)

func positions() domain.Positions {
	btc := domain.NewPosition("BTC", "CAD")
	btc.SpotAmount = decimal.RequireFromString("0.75")
	btc.SpotAmountInFiat = decimal.RequireFromString("37500")

	eth := domain.NewPosition("ETH", "CAD")
	eth.MarginAmount = decimal.RequireFromString("-1")
	eth.MarginAmountInFiat = decimal.RequireFromString("-3000")

	return domain.Positions{"ETH": eth, "BTC": btc}
}

func TestRows(t *testing.T) {
	rows := Rows(positions(), "CAD")

	require.Len(t, rows, 2)
	assert.Equal(t, []string{"BTC", "0.75", "-", "$37,500.00 CAD"}, rows[0])
	assert.Equal(t, "ETH", rows[1][0])
	assert.Equal(t, "-1", rows[1][2])
}

func TestExchangeSection(t *testing.T) {
	section := ExchangeSection(domain.ExchangeResult{Exchange: "BINANCE", Positions: positions()}, "CAD")

	lines := strings.Split(section, "\n")
	assert.Equal(t, "BINANCE: $34,500.00 CAD", lines[0])
	assert.Contains(t, section, "SYMBOL")
	assert.Contains(t, section, "BTC")

	empty := ExchangeSection(domain.ExchangeResult{Exchange: "KUCOIN", Positions: domain.Positions{}}, "CAD")
	assert.Equal(t, "KUCOIN: $0.00 CAD\n(no positions)", empty)
}

func TestTerminal(t *testing.T) {
	byExchange := domain.ExchangePositions{
		{Exchange: "BINANCE", Positions: positions()},
		{Exchange: "COINBASE", Positions: domain.Positions{}},
	}

	out := Terminal(byExchange, positions(), "CAD")

	assert.Contains(t, out, "BINANCE")
	assert.Contains(t, out, "COINBASE")
	assert.Contains(t, out, "no positions")
	assert.Contains(t, out, "$34,500.00 CAD")
	assert.Less(t, strings.Index(out, "BINANCE"), strings.Index(out, "COINBASE"))
}
