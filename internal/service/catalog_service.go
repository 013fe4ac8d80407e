package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/currency"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProductView is a product as shown to the shopper.
type ProductView struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	Image           string          `json:"image"`
	Images          []string        `json:"images"`
	CategoryID      string          `json:"categoryId"`
	SubCategoryID   string          `json:"subCategoryId,omitempty"`
	BestSeller      bool            `json:"bestSeller"`
	Currency        string          `json:"currency"`
	Price           decimal.Decimal `json:"price"`
	ListPrice       decimal.Decimal `json:"listPrice"`
	DiscountPercent int64           `json:"discountPercent,omitempty"`
	PriceLabel      string          `json:"priceLabel"`
	ListPriceLabel  string          `json:"listPriceLabel,omitempty"`
}

// BrowseResult is one page of the catalogue.
type BrowseResult struct {
	Products   []ProductView `json:"products"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
}

type cacheEntry[T any] struct {
	mu      sync.Mutex
	value   T
	fetched time.Time
	ok      bool
}

// get returns the cached value while it is fresh, otherwise refetches.
// A failed refetch serves the stale value when there is one.
func (e *cacheEntry[T]) get(ctx context.Context, ttl time.Duration, now time.Time, fetch func(context.Context) (T, error)) (T, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ok && now.Sub(e.fetched) < ttl {
		return e.value, false, nil
	}

	v, err := fetch(ctx)
	if err != nil {
		if e.ok {
			return e.value, true, nil
		}
		var zero T
		return zero, false, err
	}

	e.value, e.fetched, e.ok = v, now, true
	return v, false, nil
}

// catalogService implements CatalogService.
type catalogService struct {
	api       CatalogBackend
	imageBase string
	ttl       time.Duration
	now       func() time.Time
	logger    zerolog.Logger

	products   cacheEntry[[]model.Product]
	categories cacheEntry[[]model.Category]
}

// NewCatalogService creates a catalog service that caches the backend's
// product and category lists for ttl.
func NewCatalogService(api CatalogBackend, imageBase string, ttl time.Duration, logger zerolog.Logger) CatalogService {
	return &catalogService{
		api:       api,
		imageBase: imageBase,
		ttl:       ttl,
		now:       time.Now,
		logger:    logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) loadProducts(ctx context.Context) ([]model.Product, error) {
	products, stale, err := s.products.get(ctx, s.ttl, s.now(), s.api.Products)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load products")
		return nil, err
	}
	if stale {
		s.logger.Warn().Msg("serving stale product list")
	}
	return products, nil
}

// Categories lists the catalogue categories.
func (s *catalogService) Categories(ctx context.Context) ([]model.Category, error) {
	categories, stale, err := s.categories.get(ctx, s.ttl, s.now(), s.api.Categories)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load categories")
		return nil, err
	}
	if stale {
		s.logger.Warn().Msg("serving stale category list")
	}
	return categories, nil
}

// CategoryID resolves a slug or id to a category id.
func (s *catalogService) CategoryID(ctx context.Context, selector string) (string, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" || strings.EqualFold(selector, catalog.All) {
		return catalog.All, nil
	}

	categories, err := s.Categories(ctx)
	if err != nil {
		return "", err
	}
	if c, ok := catalog.ResolveCategory(categories, selector); ok {
		return c.ID, nil
	}
	return selector, nil
}

// Browse filters, sorts and pages the catalogue.
func (s *catalogService) Browse(ctx context.Context, spec catalog.FilterSpec, locale currency.Locale) (BrowseResult, error) {
	products, err := s.loadProducts(ctx)
	if err != nil {
		return BrowseResult{}, fmt.Errorf("failed to browse catalogue: %w", err)
	}

	res := catalog.Apply(products, spec, locale.EffectivePrice)

	views := make([]ProductView, len(res.Products))
	for i, p := range res.Products {
		views[i] = s.Present(p, locale)
	}

	s.logger.Debug().
		Str("category", spec.Category).
		Str("search", spec.Search).
		Int("total", res.Total).
		Int("page", res.Page).
		Msg("catalogue browsed")

	return BrowseResult{
		Products:   views,
		Total:      res.Total,
		Page:       res.Page,
		TotalPages: res.TotalPages,
	}, nil
}

// Product returns one product by id.
func (s *catalogService) Product(ctx context.Context, id string) (model.Product, error) {
	if id == "" {
		return model.Product{}, model.ErrProductNotFound
	}

	products, err := s.loadProducts(ctx)
	if err != nil {
		return model.Product{}, fmt.Errorf("failed to get product: %w", err)
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}

	s.logger.Debug().Str("product_id", id).Msg("product not found")
	return model.Product{}, model.ErrProductNotFound
}

// Present converts a product for display.
func (s *catalogService) Present(p model.Product, locale currency.Locale) ProductView {
	prices := locale.Prices(p)

	images := make([]string, len(p.Images))
	for i, img := range p.Images {
		images[i] = catalog.ImageURL(s.imageBase, img)
	}

	v := ProductView{
		ID:              p.ID,
		Name:            p.Name,
		Description:     p.Description,
		Image:           catalog.ImageURL(s.imageBase, p.PrimaryImage()),
		Images:          images,
		CategoryID:      p.Category.ID,
		SubCategoryID:   p.SubCategoryID,
		BestSeller:      p.BestSeller,
		Currency:        locale.Currency(),
		Price:           prices.Effective(),
		ListPrice:       prices.List,
		DiscountPercent: prices.DiscountPercent(),
		PriceLabel:      locale.Format(prices.Effective()),
	}
	if prices.HasDiscount() {
		v.ListPriceLabel = locale.Format(prices.List)
	}
	return v
}
