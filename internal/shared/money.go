package shared

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var moneyPrinter = message.NewPrinter(language.MustParse("es-MX"))

// FormatMoney renders an amount for display: currency prefix, locale-aware
// thousands separators, exactly two fraction digits. Formatting is a
// presentation step only; stored totals keep full precision.
func FormatMoney(amount float64) string {
	return moneyPrinter.Sprintf("$%v", number.Decimal(amount,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2)))
}

// FormatPercent renders a percentage with up to two fraction digits.
func FormatPercent(pct float64) string {
	return moneyPrinter.Sprintf("%v%%", number.Decimal(pct,
		number.MaxFractionDigits(2)))
}
