package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"storefront/internal/catalog"
	"storefront/internal/currency"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockCatalogService is a mock implementation of CatalogService.
type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) Categories(ctx context.Context) ([]model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Category), args.Error(1)
}

func (m *MockCatalogService) CategoryID(ctx context.Context, selector string) (string, error) {
	args := m.Called(ctx, selector)
	return args.String(0), args.Error(1)
}

func (m *MockCatalogService) Browse(ctx context.Context, spec catalog.FilterSpec, locale currency.Locale) (service.BrowseResult, error) {
	args := m.Called(ctx, spec, locale)
	return args.Get(0).(service.BrowseResult), args.Error(1)
}

func (m *MockCatalogService) Product(ctx context.Context, id string) (model.Product, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Product), args.Error(1)
}

func (m *MockCatalogService) Present(p model.Product, locale currency.Locale) service.ProductView {
	args := m.Called(p, locale)
	return args.Get(0).(service.ProductView)
}

func TestProductHandler_Categories(t *testing.T) {
	s := newTestSession(t, nil)

	t.Run("lists categories with slugs", func(t *testing.T) {
		svc := new(MockCatalogService)
		svc.On("Categories", mock.Anything).Return([]model.Category{
			{ID: "c1", Name: "Dinner Sets"},
		}, nil)
		h := NewProductHandler(svc, zerolog.Nop())

		rec := serve(s, http.MethodGet, "/api/categories", "/api/categories", nil, h.Categories)

		require.Equal(t, http.StatusOK, rec.Code)
		var views []categoryView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
		assert.Equal(t, []categoryView{{ID: "c1", Name: "Dinner Sets", Slug: "dinner-sets"}}, views)
		svc.AssertExpectations(t)
	})

	t.Run("backend failure", func(t *testing.T) {
		svc := new(MockCatalogService)
		svc.On("Categories", mock.Anything).Return(nil, errors.New("backend down"))
		h := NewProductHandler(svc, zerolog.Nop())

		rec := serve(s, http.MethodGet, "/api/categories", "/api/categories", nil, h.Categories)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestProductHandler_GetAll(t *testing.T) {
	minPrice := decimal.NewFromInt(100)

	tests := []struct {
		name           string
		query          string
		expectService  bool
		expectedSpec   catalog.FilterSpec
		expectedStatus int
	}{
		{
			name:           "defaults",
			query:          "",
			expectService:  true,
			expectedSpec:   catalog.FilterSpec{Sort: catalog.SortDefault, Page: 1},
			expectedStatus: http.StatusOK,
		},
		{
			name:          "all filters",
			query:         "?category=dinner-sets&subcategory=s1&q=plate&minPrice=100&sort=price-low&page=2",
			expectService: true,
			expectedSpec: catalog.FilterSpec{
				Category:    "c1",
				SubCategory: "s1",
				Search:      "plate",
				MinPrice:    &minPrice,
				Sort:        catalog.SortPriceLow,
				Page:        2,
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid minPrice",
			query:          "?minPrice=cheap",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid maxPrice",
			query:          "?maxPrice=ten",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid page",
			query:          "?page=two",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, nil)
			svc := new(MockCatalogService)
			if tt.expectService {
				selector := ""
				if tt.expectedSpec.Category != "" {
					selector = "dinner-sets"
				}
				svc.On("CategoryID", mock.Anything, selector).Return(tt.expectedSpec.Category, nil)
				svc.On("Browse", mock.Anything, mock.MatchedBy(func(spec catalog.FilterSpec) bool {
					return spec.Category == tt.expectedSpec.Category &&
						spec.SubCategory == tt.expectedSpec.SubCategory &&
						spec.Search == tt.expectedSpec.Search &&
						spec.Sort == tt.expectedSpec.Sort &&
						spec.Page == tt.expectedSpec.Page &&
						equalDecimalPtr(spec.MinPrice, tt.expectedSpec.MinPrice) &&
						spec.MaxPrice == nil
				}), mock.Anything).Return(service.BrowseResult{Products: []service.ProductView{}, Page: tt.expectedSpec.Page}, nil)
			}
			h := NewProductHandler(svc, zerolog.Nop())

			rec := serve(s, http.MethodGet, "/api/products", "/api/products"+tt.query, nil, h.GetAll)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectService {
				svc.AssertExpectations(t)
			} else {
				assert.Equal(t, model.ErrCodeInvalidFilter, decodeError(t, rec).Error)
				svc.AssertNotCalled(t, "Browse", mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func equalDecimalPtr(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func TestProductHandler_GetAll_ResetsPageOnNewCriteria(t *testing.T) {
	s := newTestSession(t, nil)
	svc := new(MockCatalogService)
	svc.On("CategoryID", mock.Anything, "").Return("", nil)
	var pages []int
	svc.On("Browse", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			pages = append(pages, args.Get(1).(catalog.FilterSpec).Page)
		}).
		Return(service.BrowseResult{}, nil)
	h := NewProductHandler(svc, zerolog.Nop())

	serve(s, http.MethodGet, "/api/products", "/api/products?q=plate&page=3", nil, h.GetAll)
	serve(s, http.MethodGet, "/api/products", "/api/products?q=plate&page=4", nil, h.GetAll)
	serve(s, http.MethodGet, "/api/products", "/api/products?q=bowl&page=4", nil, h.GetAll)

	assert.Equal(t, []int{3, 4, 1}, pages)
}

func TestProductHandler_GetAll_UnknownCategory(t *testing.T) {
	s := newTestSession(t, nil)
	svc := new(MockCatalogService)
	svc.On("CategoryID", mock.Anything, "teapots").Return("", model.ErrProductNotFound)
	h := NewProductHandler(svc, zerolog.Nop())

	rec := serve(s, http.MethodGet, "/api/products", "/api/products?category=teapots", nil, h.GetAll)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	svc.AssertNotCalled(t, "Browse", mock.Anything, mock.Anything, mock.Anything)
}

func TestProductHandler_GetByID(t *testing.T) {
	plate := model.Product{ID: "p1", Name: "Plate", Price: decimal.NewFromInt(100)}

	tests := []struct {
		name           string
		productID      string
		mockProduct    model.Product
		mockError      error
		expectedStatus int
	}{
		{
			name:           "found",
			productID:      "p1",
			mockProduct:    plate,
			expectedStatus: http.StatusOK,
		},
		{
			name:           "not found",
			productID:      "missing",
			mockError:      model.ErrProductNotFound,
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(t, nil)
			svc := new(MockCatalogService)
			svc.On("Product", mock.Anything, tt.productID).Return(tt.mockProduct, tt.mockError)
			if tt.mockError == nil {
				svc.On("Present", tt.mockProduct, mock.Anything).Return(service.ProductView{ID: "p1", PriceLabel: "₹100.00"})
			}
			h := NewProductHandler(svc, zerolog.Nop())

			rec := serve(s, http.MethodGet, "/api/products/{id}", "/api/products/"+tt.productID, nil, h.GetByID)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.mockError == nil {
				var view service.ProductView
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
				assert.Equal(t, "₹100.00", view.PriceLabel)
			}
			svc.AssertExpectations(t)
		})
	}
}
