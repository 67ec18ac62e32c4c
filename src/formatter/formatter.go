// Package formatter turns raw market numbers into display strings.
// Every function is total: nil input yields a placeholder.
package formatter

import (
	"strings"

	"coin-dashboard/src/models"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Placeholders
const (
	NotAvailable = "N/A"
	Unlimited    = "∞"
)

type tier struct {
	min    float64
	suffix string
}

// Magnitude ladder shared by currency and supply values
var ladder = []tier{
	{1e12, "T"},
	{1e9, "B"},
	{1e6, "M"},
	{1e3, "K"},
}

var printer = message.NewPrinter(language.English)

// -----------------------------------------------------------------------------

// FormatCurrency renders a dollar magnitude: "$1.25B", "$999.5", "$0".
func FormatCurrency(v *float64) string {
	if v == nil || *v == 0 {
		return "$0"
	}
	return sign(*v) + "$" + magnitude(*v)
}

// FormatCurrencyOr is FormatCurrency with a placeholder for missing values.
func FormatCurrencyOr(v *float64, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return FormatCurrency(v)
}

// -----------------------------------------------------------------------------

// FormatPrice renders a unit price: six decimals below one dollar, two
// grouped decimals otherwise.
func FormatPrice(v *float64) string {
	if v == nil || *v == 0 {
		return "$0.00"
	}

	d := decimal.NewFromFloat(*v).Abs()
	if d.LessThan(decimal.NewFromInt(1)) {
		return sign(*v) + "$" + d.StringFixed(6)
	}
	return sign(*v) + "$" + grouped(d, 2)
}

// FormatPriceOr is FormatPrice with a placeholder for missing values.
func FormatPriceOr(v *float64, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return FormatPrice(v)
}

// -----------------------------------------------------------------------------

// FormatPercentage renders a signed change: "+1.50%", "-2.35%", "0.00%".
func FormatPercentage(v *float64) string {
	if v == nil || *v == 0 {
		return "0.00%"
	}
	prefix := "+"
	if *v < 0 {
		prefix = "-"
	}
	return prefix + decimal.NewFromFloat(*v).Abs().StringFixed(2) + "%"
}

// -----------------------------------------------------------------------------

// FormatSupply renders a token quantity. A nil supply is unbounded.
func FormatSupply(v *float64) string {
	if v == nil {
		return Unlimited
	}
	if *v == 0 {
		return "0"
	}
	return sign(*v) + magnitude(*v)
}

// FormatSupplyOr is FormatSupply with a placeholder instead of "∞".
func FormatSupplyOr(v *float64, placeholder string) string {
	if v == nil {
		return placeholder
	}
	return FormatSupply(v)
}

// -----------------------------------------------------------------------------

// FormatCount renders a grouped integer: 13,245.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}

// FormatCountOr renders a nullable count.
func FormatCountOr(n *int, placeholder string) string {
	if n == nil {
		return placeholder
	}
	return FormatCount(*n)
}

// -----------------------------------------------------------------------------

// ChangeColor classifies a signed change. Zero counts as positive.
func ChangeColor(v *float64) models.ChangeColor {
	switch {
	case v == nil:
		return models.ColorNeutral
	case *v >= 0:
		return models.ColorPositive
	default:
		return models.ColorNegative
	}
}

// -----------------------------------------------------------------------------

// magnitude formats |v| with the ladder suffix, or grouped with at most
// two trimmed decimals below the first tier. The tier is chosen after
// rounding, so 999.996 renders as 1.00K rather than 1000.00.
func magnitude(v float64) string {
	d := decimal.NewFromFloat(v).Abs()
	thousand := decimal.NewFromInt(1000)

	rounded := d.Round(2)
	if rounded.LessThan(thousand) {
		whole := rounded.Truncate(0)
		frac := strings.TrimPrefix(rounded.Sub(whole).String(), "0")
		return printer.Sprintf("%d", whole.IntPart()) + frac
	}

	// ladder runs largest first
	for i := len(ladder) - 1; i >= 0; i-- {
		scaled := d.Div(decimal.NewFromFloat(ladder[i].min)).Round(2)
		if i == 0 || scaled.LessThan(thousand) {
			return scaled.StringFixed(2) + ladder[i].suffix
		}
	}
	return rounded.String()
}

// grouped formats a non-negative d with thousands separators and a fixed
// number of decimals.
func grouped(d decimal.Decimal, places int32) string {
	fixed := d.StringFixed(places)
	whole, frac, _ := strings.Cut(fixed, ".")
	n, err := decimal.NewFromString(whole)
	if err != nil {
		return fixed
	}
	out := printer.Sprintf("%d", n.IntPart())
	if frac != "" {
		out += "." + frac
	}
	return out
}

func sign(v float64) string {
	if v < 0 {
		return "-"
	}
	return ""
}
