package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a read-only catalogue snapshot as served by the backend.
type Product struct {
	ID               string           `json:"_id"`
	Name             string           `json:"productName"`
	Description      string           `json:"description"`
	Price            decimal.Decimal  `json:"price"`
	DiscountPrice    *decimal.Decimal `json:"discountPrice,omitempty"`
	PriceUSD         decimal.Decimal  `json:"priceUSD"`
	DiscountPriceUSD *decimal.Decimal `json:"discountPriceUSD,omitempty"`
	Category         CategoryRef      `json:"category"`
	SubCategoryID    string           `json:"subCategoryId"`
	Images           []string         `json:"productImages"`
	BestSeller       bool             `json:"bestSeller"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// CategoryRef is the embedded category reference on a product.
type CategoryRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

// Category is a catalogue category.
type Category struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// Slug returns the URL form of the category name ("Dinner Sets" -> "dinner-sets").
func (c Category) Slug() string {
	return strings.Join(strings.Fields(strings.ToLower(c.Name)), "-")
}

// HomePrices returns the home-currency price pair.
func (p Product) HomePrices() PricePair {
	return PricePair{List: p.Price, Discounted: p.DiscountPrice}
}

// ForeignPrices returns the foreign-currency price pair.
func (p Product) ForeignPrices() PricePair {
	return PricePair{List: p.PriceUSD, Discounted: p.DiscountPriceUSD}
}

// PrimaryImage returns the first image reference, or "".
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// PricePair is a list price with an optional discounted price.
// A zero or missing discounted price means the list price applies.
type PricePair struct {
	List       decimal.Decimal
	Discounted *decimal.Decimal
}

// Effective returns the discounted price if present, else the list price.
func (pp PricePair) Effective() decimal.Decimal {
	if pp.Discounted != nil && pp.Discounted.IsPositive() {
		return *pp.Discounted
	}
	return pp.List
}

// HasDiscount reports whether the effective price is below the list price.
func (pp PricePair) HasDiscount() bool {
	return pp.List.GreaterThan(pp.Effective())
}

// DiscountPercent returns the whole-number discount relative to the list price.
func (pp PricePair) DiscountPercent() int64 {
	if !pp.HasDiscount() || !pp.List.IsPositive() {
		return 0
	}
	return pp.List.Sub(pp.Effective()).Div(pp.List).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
