package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/currency"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalogBackend is a mock implementation of CatalogBackend.
type MockCatalogBackend struct {
	mock.Mock
}

func (m *MockCatalogBackend) Categories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCatalogBackend) Products(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Product), args.Error(1)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func sampleProducts() []model.Product {
	return []model.Product{
		{ID: "p1", Name: "Dinner Plate", Price: dec("100"), PriceUSD: dec("2"), Category: model.CategoryRef{ID: "c1"}, Images: []string{"plate.jpg"}},
		{ID: "p2", Name: "Soup Bowl", Price: dec("50"), DiscountPrice: decPtr("40"), PriceUSD: dec("1.5"), Category: model.CategoryRef{ID: "c2"}},
		{ID: "p3", Name: "Serving Tray", Price: dec("75"), PriceUSD: dec("3"), Category: model.CategoryRef{ID: "c1"}},
	}
}

func newTestCatalog(api CatalogBackend) (*catalogService, *time.Time) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	svc := NewCatalogService(api, "https://cdn.test", time.Minute, zerolog.Nop()).(*catalogService)
	svc.now = func() time.Time { return now }
	return svc, &now
}

func TestCatalogService_Browse(t *testing.T) {
	home := currency.HomeLocale(currency.DefaultSettings())

	tests := []struct {
		name    string
		spec    catalog.FilterSpec
		wantIDs []string
	}{
		{
			name:    "all products in catalogue order",
			spec:    catalog.FilterSpec{},
			wantIDs: []string{"p1", "p2", "p3"},
		},
		{
			name:    "category filter",
			spec:    catalog.FilterSpec{Category: "c1"},
			wantIDs: []string{"p1", "p3"},
		},
		{
			name:    "price low sorts by effective price",
			spec:    catalog.FilterSpec{Sort: catalog.SortPriceLow},
			wantIDs: []string{"p2", "p3", "p1"},
		},
		{
			name:    "search matches name",
			spec:    catalog.FilterSpec{Search: "bowl"},
			wantIDs: []string{"p2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := new(MockCatalogBackend)
			api.On("Products", mock.Anything).Return(sampleProducts(), nil).Once()
			svc, _ := newTestCatalog(api)

			res, err := svc.Browse(context.Background(), tt.spec, home)
			require.NoError(t, err)

			ids := make([]string, len(res.Products))
			for i, p := range res.Products {
				ids[i] = p.ID
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, len(tt.wantIDs), res.Total)
			assert.Equal(t, 1, res.Page)
			api.AssertExpectations(t)
		})
	}
}

func TestCatalogService_CachesProducts(t *testing.T) {
	api := new(MockCatalogBackend)
	api.On("Products", mock.Anything).Return(sampleProducts(), nil).Twice()
	svc, now := newTestCatalog(api)
	ctx := context.Background()
	home := currency.HomeLocale(currency.DefaultSettings())

	_, err := svc.Browse(ctx, catalog.FilterSpec{}, home)
	require.NoError(t, err)
	_, err = svc.Product(ctx, "p1")
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "Products", 1)

	*now = now.Add(2 * time.Minute)
	_, err = svc.Browse(ctx, catalog.FilterSpec{}, home)
	require.NoError(t, err)
	api.AssertNumberOfCalls(t, "Products", 2)
}

func TestCatalogService_ServesStaleListOnError(t *testing.T) {
	api := new(MockCatalogBackend)
	api.On("Products", mock.Anything).Return(sampleProducts(), nil).Once()
	api.On("Products", mock.Anything).Return(nil, errors.New("backend down")).Once()
	svc, now := newTestCatalog(api)
	ctx := context.Background()

	_, err := svc.Product(ctx, "p1")
	require.NoError(t, err)

	*now = now.Add(time.Hour)
	p, err := svc.Product(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, "Soup Bowl", p.Name)
	api.AssertExpectations(t)
}

func TestCatalogService_BrowseError(t *testing.T) {
	api := new(MockCatalogBackend)
	api.On("Products", mock.Anything).Return(nil, errors.New("backend down"))
	svc, _ := newTestCatalog(api)

	_, err := svc.Browse(context.Background(), catalog.FilterSpec{}, currency.HomeLocale(currency.DefaultSettings()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to browse catalogue")
}

func TestCatalogService_Product(t *testing.T) {
	api := new(MockCatalogBackend)
	api.On("Products", mock.Anything).Return(sampleProducts(), nil)
	svc, _ := newTestCatalog(api)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		p, err := svc.Product(ctx, "p3")
		require.NoError(t, err)
		assert.Equal(t, "Serving Tray", p.Name)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.Product(ctx, "nope")
		assert.ErrorIs(t, err, model.ErrProductNotFound)
	})

	t.Run("empty id skips the backend", func(t *testing.T) {
		fresh := new(MockCatalogBackend)
		s, _ := newTestCatalog(fresh)
		_, err := s.Product(ctx, "")
		assert.ErrorIs(t, err, model.ErrProductNotFound)
		fresh.AssertNotCalled(t, "Products", mock.Anything)
	})
}

func TestCatalogService_CategoryID(t *testing.T) {
	api := new(MockCatalogBackend)
	api.On("Categories", mock.Anything).Return([]model.Category{
		{ID: "c1", Name: "Dinner Sets"},
		{ID: "c2", Name: "Bowls"},
	}, nil)
	svc, _ := newTestCatalog(api)

	tests := []struct {
		selector string
		want     string
	}{
		{"", catalog.All},
		{"ALL", catalog.All},
		{"dinner-sets", "c1"},
		{"bowls", "c2"},
		{"c2", "c2"},
	}
	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			got, err := svc.CategoryID(context.Background(), tt.selector)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCatalogService_Present(t *testing.T) {
	svc, _ := newTestCatalog(new(MockCatalogBackend))
	s := currency.DefaultSettings()
	products := sampleProducts()

	t.Run("home discounted", func(t *testing.T) {
		v := svc.Present(products[1], currency.HomeLocale(s))
		assert.Equal(t, "INR", v.Currency)
		assert.True(t, dec("40").Equal(v.Price))
		assert.True(t, dec("50").Equal(v.ListPrice))
		assert.Equal(t, int64(20), v.DiscountPercent)
		assert.Equal(t, "₹40.00", v.PriceLabel)
		assert.Equal(t, "₹50.00", v.ListPriceLabel)
		assert.Equal(t, catalog.FallbackImage, v.Image)
	})

	t.Run("foreign list price", func(t *testing.T) {
		v := svc.Present(products[0], currency.NewLocale("US", s))
		assert.Equal(t, "USD", v.Currency)
		assert.Equal(t, "$2.00", v.PriceLabel)
		assert.Empty(t, v.ListPriceLabel)
		assert.Zero(t, v.DiscountPercent)
		assert.Equal(t, "https://cdn.test/uploads/plate.jpg", v.Image)
		assert.Equal(t, []string{"https://cdn.test/uploads/plate.jpg"}, v.Images)
	})
}
