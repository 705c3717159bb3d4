package core

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultCurrencySymbol is the peso sign used for on-screen amounts.
const DefaultCurrencySymbol = "₱"

// displayLocale is fixed; amounts are never formatted per user.
var displayLocale = language.MustParse("en-PH")

// CurrencyFormatter renders amounts for display, e.g. ₱1,234.50.
// CSV and XLSX exports use raw decimals instead.
type CurrencyFormatter struct {
	Symbol string
}

func NewCurrencyFormatter(symbol string) CurrencyFormatter {
	if symbol == "" {
		symbol = DefaultCurrencySymbol
	}
	return CurrencyFormatter{Symbol: symbol}
}

// Format groups the integer part by thousands and always shows two decimals.
func (f CurrencyFormatter) Format(d decimal.Decimal) string {
	fixed := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")

	grouped := intPart
	if n, err := strconv.ParseInt(intPart, 10, 64); err == nil {
		grouped = message.NewPrinter(displayLocale).Sprintf("%d", n)
	}

	var b strings.Builder
	if d.Round(2).IsNegative() {
		b.WriteByte('-')
	}
	b.WriteString(f.Symbol)
	b.WriteString(grouped)
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatCurrency formats d with the default symbol.
func FormatCurrency(d decimal.Decimal) string {
	return NewCurrencyFormatter("").Format(d)
}
