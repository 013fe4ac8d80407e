package handler

import (
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/currency"
	"storefront/internal/model"
	"storefront/internal/service"
	"storefront/internal/wishlist"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CartHandler serves the cart and the wishlist.
type CartHandler struct {
	catalog   service.CatalogService
	imageBase string
	logger    zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(products service.CatalogService, imageBase string, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		catalog:   products,
		imageBase: imageBase,
		logger:    logger.With().Str("handler", "cart").Logger(),
	}
}

type cartLineView struct {
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	Image      string          `json:"image"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Quantity   int             `json:"quantity"`
	PriceLabel string          `json:"priceLabel"`
	TotalLabel string          `json:"totalLabel"`
}

type cartView struct {
	Lines         []cartLineView  `json:"lines"`
	Count         int             `json:"count"`
	Currency      string          `json:"currency"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	SubtotalLabel string          `json:"subtotalLabel"`
	TaxLabel      string          `json:"taxLabel"`
	TotalLabel    string          `json:"totalLabel"`
}

func (h *CartHandler) view(c *cart.Cart, loc currency.Locale) cartView {
	lines := c.Lines()
	v := cartView{
		Lines:    make([]cartLineView, len(lines)),
		Currency: loc.Currency(),
	}
	for i, l := range lines {
		v.Lines[i] = cartLineView{
			ProductID:  l.ProductID,
			Name:       l.Name,
			Image:      catalog.ImageURL(h.imageBase, l.Image),
			UnitPrice:  l.UnitPrice,
			Quantity:   l.Quantity,
			PriceLabel: loc.Format(l.UnitPrice),
			TotalLabel: loc.Format(currency.FromMinor(cart.LineMinorSubtotal(l))),
		}
		v.Count += l.Quantity
	}

	totals := cart.ComputeMinorTotals(lines).Decimal()
	v.Subtotal, v.Tax, v.Total = totals.Subtotal, totals.Tax, totals.Total
	v.SubtotalLabel = loc.Format(totals.Subtotal)
	v.TaxLabel = loc.Format(totals.Tax)
	v.TotalLabel = loc.Format(totals.Total)
	return v
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, h.view(s.Cart, s.Locale()))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

// AddItem handles POST /api/cart/items. The price is snapshotted in the
// session's current currency.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if req.ProductID == "" {
		writeError(w, r, model.NewDomainError(model.ErrCodeMissingField, "productId is required"), h.logger)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	product, err := h.catalog.Product(r.Context(), req.ProductID)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	loc := s.Locale()
	item := cart.Item{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.PrimaryImage(),
		Price:     loc.EffectivePrice(product),
	}
	if err := s.Cart.Add(item, quantity); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	h.logger.Debug().
		Str("session_id", s.ID).
		Str("product_id", product.ID).
		Int("quantity", quantity).
		Msg("item added to cart")
	writeJSON(w, http.StatusOK, h.view(s.Cart, loc))
}

type updateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// UpdateItem handles PATCH /api/cart/items/{productId}. A quantity below one
// removes the line.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req updateQuantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	if err := s.Cart.UpdateQuantity(chi.URLParam(r, "productId"), req.Quantity); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, h.view(s.Cart, s.Locale()))
}

// RemoveItem handles DELETE /api/cart/items/{productId}. Removing an absent
// product is a no-op.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	s.Cart.Remove(chi.URLParam(r, "productId"))
	writeJSON(w, http.StatusOK, h.view(s.Cart, s.Locale()))
}

// Clear handles DELETE /api/cart.
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	s.Cart.Clear()
	writeJSON(w, http.StatusOK, h.view(s.Cart, s.Locale()))
}

type wishlistView struct {
	ProductIDs []string `json:"productIds"`
	Count      int      `json:"count"`
}

type wishlistToggleView struct {
	wishlistView
	ProductID string `json:"productId"`
	Added     bool   `json:"added"`
}

// Wishlist handles GET /api/wishlist.
func (h *CartHandler) Wishlist(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, wishlistOf(s.Wishlist))
}

func wishlistOf(wl *wishlist.Wishlist) wishlistView {
	ids := wl.IDs()
	if ids == nil {
		ids = []string{}
	}
	return wishlistView{ProductIDs: ids, Count: len(ids)}
}

// ToggleWishlist handles POST /api/wishlist/{productId}.
func (h *CartHandler) ToggleWishlist(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	id := chi.URLParam(r, "productId")
	added := s.Wishlist.Toggle(id)
	writeJSON(w, http.StatusOK, wishlistToggleView{
		wishlistView: wishlistOf(s.Wishlist),
		ProductID:    id,
		Added:        added,
	})
}
