package cart

import (
	"storefront/internal/currency"
	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// TaxRate is the flat tax applied to the subtotal.
var TaxRate = decimal.RequireFromString("0.05")

// Totals are exact decimal totals.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sums price times quantity and applies TaxRate.
func ComputeTotals(lines []model.CartLine) Totals {
	subtotal := decimal.Zero
	for _, l := range lines {
		subtotal = subtotal.Add(l.LineTotal())
	}
	tax := subtotal.Mul(TaxRate)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// MinorTotals are totals in minor currency units. Each unit price is rounded
// half up before multiplying by quantity, and the tax is rounded half up on
// the summed subtotal. The submitted order total and the displayed total
// both come from here.
type MinorTotals struct {
	Subtotal int64
	Tax      int64
	Total    int64
}

// ComputeMinorTotals applies the minor-unit rounding rule to lines.
func ComputeMinorTotals(lines []model.CartLine) MinorTotals {
	var subtotal int64
	for _, l := range lines {
		subtotal += LineMinorSubtotal(l)
	}
	tax := decimal.NewFromInt(subtotal).Mul(TaxRate).Round(0).IntPart()
	return MinorTotals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// LineMinorSubtotal is the line's unit price in minor units times its quantity.
func LineMinorSubtotal(l model.CartLine) int64 {
	return currency.ToMinor(l.UnitPrice) * int64(l.Quantity)
}

// Decimal converts the minor totals back to currency amounts for display.
func (m MinorTotals) Decimal() Totals {
	return Totals{
		Subtotal: currency.FromMinor(m.Subtotal),
		Tax:      currency.FromMinor(m.Tax),
		Total:    currency.FromMinor(m.Total),
	}
}
