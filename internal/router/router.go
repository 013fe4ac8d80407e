package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Session  *handler.SessionHandler
	Product  *handler.ProductHandler
	Cart     *handler.CartHandler
	Checkout *handler.CheckoutHandler
	Order    *handler.OrderHandler
	Account  *handler.AccountHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, sessions middleware.SessionBinder, allowedOrigins []string, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Apply middleware in order: CorrelationID -> Logging -> Recovery -> CORS
	r.Use(middleware.CorrelationID)
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recovery(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.SessionIDHeader, middleware.CorrelationIDHeader},
		ExposedHeaders:   []string{middleware.SessionIDHeader, middleware.CorrelationIDHeader, "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoint (no session required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Session(sessions, logger))

		r.Get("/locale", h.Session.Locale)
		r.Put("/session/credential", h.Session.SetCredential)
		r.Delete("/session/credential", h.Session.ClearCredential)

		r.Get("/categories", h.Product.Categories)
		r.Get("/products", h.Product.GetAll)
		r.Get("/products/{id}", h.Product.GetByID)

		r.Get("/cart", h.Cart.Get)
		r.Delete("/cart", h.Cart.Clear)
		r.Post("/cart/items", h.Cart.AddItem)
		r.Patch("/cart/items/{productId}", h.Cart.UpdateItem)
		r.Delete("/cart/items/{productId}", h.Cart.RemoveItem)
		r.Get("/wishlist", h.Cart.Wishlist)
		r.Post("/wishlist/{productId}", h.Cart.ToggleWishlist)

		r.Get("/checkout", h.Checkout.Get)
		r.Post("/checkout", h.Checkout.PlaceOrder)
		r.Post("/checkout/payment", h.Checkout.CompletePayment)

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Order.List)
			r.Post("/{id}/cancel", h.Order.Cancel)
			r.Post("/{id}/return", h.Order.RequestReturn)
			r.Get("/{id}/invoice", h.Order.Invoice)
			r.Get("/{id}/tracking", h.Order.Tracking)
		})

		r.Put("/profile", h.Account.UpdateProfile)
		r.Post("/profile/password", h.Account.ChangePassword)
		r.Get("/notifications", h.Account.Notifications)
		r.Post("/notifications/{id}/read", h.Account.MarkNotificationRead)
	})

	return otelhttp.NewHandler(r, "storefront")
}
