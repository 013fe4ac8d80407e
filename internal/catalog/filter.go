// Package catalog narrows, orders and pages the product list shown to a shopper.
package catalog

import (
	"slices"
	"strings"

	"storefront/internal/model"

	"github.com/shopspring/decimal"
)

// PageSize is the fixed number of products per page.
const PageSize = 20

// All selects every category or subcategory.
const All = "all"

// SortKey orders the filtered products.
type SortKey string

const (
	SortDefault   SortKey = "default"
	SortNewest    SortKey = "newest"
	SortPriceLow  SortKey = "price-low"
	SortPriceHigh SortKey = "price-high"
	SortName      SortKey = "name"
)

// ParseSort maps a wire value to a SortKey. Unknown values keep catalogue order.
func ParseSort(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortNewest, SortPriceLow, SortPriceHigh, SortName:
		return k
	default:
		return SortDefault
	}
}

// FilterSpec selects and orders a page of products.
// An inverted price range is not an error; it matches nothing.
type FilterSpec struct {
	Category    string
	SubCategory string
	Search      string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	Sort        SortKey
	Page        int
}

// PriceFunc returns the effective price a product is filtered and sorted by.
type PriceFunc func(model.Product) decimal.Decimal

// Result is one page of matching products.
type Result struct {
	Products   []model.Product
	Total      int
	Page       int
	TotalPages int
}

// Empty reports whether nothing matched.
func (r Result) Empty() bool {
	return r.Total == 0
}

// Next returns s with its page reset to 1 when any criterion other than
// the page differs from prev.
func (s FilterSpec) Next(prev FilterSpec) FilterSpec {
	if !s.sameCriteria(prev) {
		s.Page = 1
	}
	return s
}

func (s FilterSpec) sameCriteria(o FilterSpec) bool {
	return selector(s.Category) == selector(o.Category) &&
		selector(s.SubCategory) == selector(o.SubCategory) &&
		strings.TrimSpace(s.Search) == strings.TrimSpace(o.Search) &&
		equalBound(s.MinPrice, o.MinPrice) &&
		equalBound(s.MaxPrice, o.MaxPrice) &&
		ParseSort(string(s.Sort)) == ParseSort(string(o.Sort))
}

func equalBound(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func selector(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return All
	}
	return v
}

// Apply filters, sorts and paginates products. The input slice is not modified.
func Apply(products []model.Product, spec FilterSpec, price PriceFunc) Result {
	matched := Filter(products, spec, price)
	Sort(matched, ParseSort(string(spec.Sort)), price)

	total := len(matched)
	pages := (total + PageSize - 1) / PageSize
	page := spec.Page
	if page < 1 {
		page = 1
	}

	// pages past the last one are empty; checked before multiplying so a
	// huge page number cannot overflow the offset
	start := total
	if page <= pages {
		start = (page - 1) * PageSize
	}
	end := min(start+PageSize, total)

	return Result{
		Products:   matched[start:end],
		Total:      total,
		Page:       page,
		TotalPages: pages,
	}
}

// Filter returns the products matching every criterion of spec, in catalogue order.
func Filter(products []model.Product, spec FilterSpec, price PriceFunc) []model.Product {
	category := selector(spec.Category)
	subCategory := selector(spec.SubCategory)
	term := strings.ToLower(strings.TrimSpace(spec.Search))

	floor := decimal.Zero
	if spec.MinPrice != nil {
		floor = *spec.MinPrice
	}

	out := make([]model.Product, 0, len(products))
	for _, p := range products {
		if category != All && p.Category.ID != category {
			continue
		}
		if subCategory != All && p.SubCategoryID != subCategory {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(p.Name), term) &&
			!strings.Contains(strings.ToLower(p.Description), term) {
			continue
		}
		effective := price(p)
		if effective.LessThan(floor) {
			continue
		}
		if spec.MaxPrice != nil && effective.GreaterThan(*spec.MaxPrice) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Sort orders products in place. The sort is stable; SortDefault leaves the order untouched.
func Sort(products []model.Product, key SortKey, price PriceFunc) {
	switch key {
	case SortNewest:
		slices.SortStableFunc(products, func(a, b model.Product) int {
			return b.CreatedAt.Compare(a.CreatedAt)
		})
	case SortPriceLow:
		slices.SortStableFunc(products, func(a, b model.Product) int {
			return price(a).Cmp(price(b))
		})
	case SortPriceHigh:
		slices.SortStableFunc(products, func(a, b model.Product) int {
			return price(b).Cmp(price(a))
		})
	case SortName:
		slices.SortStableFunc(products, func(a, b model.Product) int {
			return strings.Compare(a.Name, b.Name)
		})
	}
}
