package handler

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/catalog"
	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// ProductHandler handles catalogue HTTP requests.
type ProductHandler struct {
	service service.CatalogService
	logger  zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.CatalogService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger.With().Str("handler", "product").Logger(),
	}
}

type categoryView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Categories handles GET /api/categories.
func (h *ProductHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.Categories(r.Context())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	views := make([]categoryView, len(categories))
	for i, c := range categories {
		views[i] = categoryView{ID: c.ID, Name: c.Name, Slug: c.Slug()}
	}
	writeJSON(w, http.StatusOK, views)
}

// GetAll handles GET /api/products with filtering, sorting and paging.
func (h *ProductHandler) GetAll(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	spec, err := parseFilter(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	spec.Category, err = h.service.CategoryID(r.Context(), spec.Category)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	spec = s.NextFilter(spec)

	result, err := h.service.Browse(r.Context(), spec, s.Locale())
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetByID handles GET /api/products/{id}.
func (h *ProductHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	product, err := h.service.Product(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, h.service.Present(product, s.Locale()))
}

func parseFilter(r *http.Request) (catalog.FilterSpec, error) {
	q := r.URL.Query()
	spec := catalog.FilterSpec{
		Category:    q.Get("category"),
		SubCategory: q.Get("subcategory"),
		Search:      q.Get("q"),
		Sort:        catalog.ParseSort(q.Get("sort")),
	}

	var err error
	if spec.MinPrice, err = parseBound(q.Get("minPrice")); err != nil {
		return spec, model.NewDomainError(model.ErrCodeInvalidFilter, "invalid minPrice parameter")
	}
	if spec.MaxPrice, err = parseBound(q.Get("maxPrice")); err != nil {
		return spec, model.NewDomainError(model.ErrCodeInvalidFilter, "invalid maxPrice parameter")
	}

	if page := q.Get("page"); page != "" {
		if spec.Page, err = strconv.Atoi(page); err != nil {
			return spec, model.NewDomainError(model.ErrCodeInvalidFilter, "invalid page parameter")
		}
	}
	return spec, nil
}

func parseBound(v string) (*decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
