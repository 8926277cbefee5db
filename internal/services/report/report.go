// Package report renders positions as text tables, plain for chat messages
// and styled for the terminal.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/balancecheck/internal/domain"
)

const amountPlaces = 8

var headers = []string{"SYMBOL", "SPOT", "MARGIN", "VALUE"}

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	negative  = lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F5F"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(0, 1).
			Bold(true)

	exchangeStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)
)

// Rows one row per symbol, sorted by symbol.
func Rows(positions domain.Positions, fiat string) [][]string {
	rows := make([][]string, 0, len(positions))
	for _, symbol := range positions.Symbols() {
		p := positions[symbol]
		rows = append(rows, []string{
			symbol,
			amount(p.SpotAmount),
			amount(p.MarginAmount),
			domain.FormatFiat(p.TotalFiat(), fiat),
		})
	}
	return rows
}

func amount(d decimal.Decimal) string {
	if d.IsZero() {
		return "-"
	}
	return d.Round(amountPlaces).String()
}

// Table plain table of one exchange, suitable for a code block.
func Table(positions domain.Positions, fiat string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(Rows(positions, fiat)...).
		String()
}

// ExchangeSection "<NAME>: <total>" followed by the positions table, or a
// note when the exchange reported nothing.
func ExchangeSection(r domain.ExchangeResult, fiat string) string {
	title := fmt.Sprintf("%s: %s", r.Exchange, domain.FormatFiat(r.Positions.TotalFiat(), fiat))
	if len(r.Positions) == 0 {
		return title + "\n(no positions)"
	}
	return title + "\n" + Table(r.Positions, fiat)
}

// Terminal styled report of every exchange followed by the merged view and the total.
func Terminal(byExchange domain.ExchangePositions, merged domain.Positions, fiat string) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("CRYPTO BALANCE CHECK"))
	b.WriteString("\n")

	for _, r := range byExchange {
		b.WriteString(exchangeStyle.Render(r.Exchange))
		b.WriteString("\n")
		if len(r.Positions) == 0 {
			b.WriteString(lipgloss.NewStyle().Foreground(subtle).Render("no positions"))
			b.WriteString("\n")
			continue
		}
		b.WriteString(styledTable(r.Positions, fiat))
		b.WriteString("\n")
	}

	b.WriteString(exchangeStyle.Render("ALL EXCHANGES"))
	b.WriteString("\n")
	b.WriteString(styledTable(merged, fiat))
	b.WriteString("\n")

	b.WriteString(headerStyle.Render("TOTAL " + domain.FormatFiat(merged.TotalFiat(), fiat)))
	b.WriteString("\n")

	return b.String()
}

func styledTable(positions domain.Positions, fiat string) string {
	rows := Rows(positions, fiat)
	symbols := positions.Symbols()

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(highlight)).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return cellStyle.Bold(true)
			}
			if col == len(headers)-1 && row >= 0 && row < len(symbols) &&
				positions[symbols[row]].TotalFiat().IsNegative() {
				return cellStyle.Foreground(negative)
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...).
		String()
}
