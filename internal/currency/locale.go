package currency

import (
	"strings"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Settings describes the home region and the two display currencies.
type Settings struct {
	HomeCountry     string
	HomeSymbol      string
	ForeignSymbol   string
	HomeCurrency    string
	ForeignCurrency string
}

// DefaultSettings returns the Indian storefront defaults.
func DefaultSettings() Settings {
	return Settings{
		HomeCountry:     "IN",
		HomeSymbol:      "₹",
		ForeignSymbol:   "$",
		HomeCurrency:    "INR",
		ForeignCurrency: "USD",
	}
}

// Locale is a resolved display region.
type Locale struct {
	Country  string
	settings Settings
}

// NewLocale builds the locale for a two-letter country code.
func NewLocale(country string, s Settings) Locale {
	return Locale{Country: strings.ToUpper(strings.TrimSpace(country)), settings: s}
}

// HomeLocale returns the fail-safe locale.
func HomeLocale(s Settings) Locale {
	return NewLocale(s.HomeCountry, s)
}

// Home reports whether the locale is the home region.
func (l Locale) Home() bool {
	return l.Country == l.settings.HomeCountry
}

// Symbol returns the currency symbol prices are shown with.
func (l Locale) Symbol() string {
	if l.Home() {
		return l.settings.HomeSymbol
	}
	return l.settings.ForeignSymbol
}

// Currency returns the ISO currency code sent to the payment gateway.
func (l Locale) Currency() string {
	if l.Home() {
		return l.settings.HomeCurrency
	}
	return l.settings.ForeignCurrency
}

// Prices selects the product's price pair for this locale.
func (l Locale) Prices(p model.Product) model.PricePair {
	if l.Home() {
		return p.HomePrices()
	}
	return p.ForeignPrices()
}

// EffectivePrice is the price a product is sold at in this locale.
func (l Locale) EffectivePrice(p model.Product) decimal.Decimal {
	return l.Prices(p).Effective()
}

// Format renders amount with the currency symbol, e.g. "₹1,23,456.50".
func (l Locale) Format(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "-" + l.Symbol() + l.FormatNumber(amount.Neg())
	}
	return l.Symbol() + l.FormatNumber(amount)
}

// FormatNumber renders amount with two decimals and the region's digit grouping.
// The home region groups the way en-IN does (12,34,567.00).
func (l Locale) FormatNumber(amount decimal.Decimal) string {
	s := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	if l.Home() {
		return sign + groupIndian(intPart) + "." + frac
	}
	return sign + groupWestern(intPart) + "." + frac
}

func groupWestern(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var b strings.Builder
	lead := len(head) % 2
	if lead > 0 {
		b.WriteString(head[:lead])
	}
	for i := lead; i < len(head); i += 2 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(head[i : i+2])
	}
	b.WriteByte(',')
	b.WriteString(tail)
	return b.String()
}

// ToMinor converts an amount to minor units, rounding half up.
func ToMinor(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}

// FromMinor converts minor units back to a decimal amount.
func FromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -2)
}
