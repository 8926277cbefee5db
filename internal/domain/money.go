package domain

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// IsKnownFiat reports whether code is an ISO 4217 currency.
func IsKnownFiat(code string) bool {
	return money.GetCurrency(strings.ToUpper(code)) != nil
}

// FormatFiat renders amount with the currency's grapheme and precision, e.g. "$1,234.56 CAD".
func FormatFiat(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(strings.ToUpper(code))
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}

	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, cur.Code).Display() + " " + cur.Code
}
