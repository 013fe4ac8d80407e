package service

import (
	"context"

	"storefront/internal/catalog"
	"storefront/internal/currency"
	"storefront/internal/model"
)

// CatalogBackend is the part of the backend API the catalog reads.
type CatalogBackend interface {
	Categories(ctx context.Context) ([]model.Category, error)
	Products(ctx context.Context) ([]model.Product, error)
}

// OrderBackend is the part of the backend API behind order history.
type OrderBackend interface {
	Orders(ctx context.Context, token string) ([]model.Order, error)
	CancelOrder(ctx context.Context, token, orderID string) error
	RequestReturn(ctx context.Context, token, orderID string, req model.ReturnRequest) error
	Invoice(ctx context.Context, token, orderID string) ([]byte, error)
	Track(ctx context.Context, token, waybill string) (model.TrackingFeed, error)
}

// AccountBackend is the part of the backend API behind the profile page.
type AccountBackend interface {
	UpdateProfile(ctx context.Context, token, userID string, upd model.ProfileUpdate) (model.User, error)
	ChangePassword(ctx context.Context, token string, pc model.PasswordChange) error
}

// NotificationBackend is the part of the backend API behind the notification bell.
type NotificationBackend interface {
	Notifications(ctx context.Context, token string) (model.NotificationFeed, error)
	MarkNotificationRead(ctx context.Context, token, id string) error
}

// CatalogService defines catalogue browsing operations.
type CatalogService interface {
	// Categories lists the catalogue categories.
	Categories(ctx context.Context) ([]model.Category, error)

	// CategoryID resolves a category selector, which may be a URL slug or an id.
	// "all" and "" select every category.
	CategoryID(ctx context.Context, selector string) (string, error)

	// Browse filters, sorts and pages the catalogue in the shopper's locale.
	Browse(ctx context.Context, spec catalog.FilterSpec, locale currency.Locale) (BrowseResult, error)

	// Product returns one product by id.
	Product(ctx context.Context, id string) (model.Product, error)

	// Present converts a product for display in the shopper's locale.
	Present(p model.Product, locale currency.Locale) ProductView
}

// OrderService defines the customer's order history operations.
type OrderService interface {
	// List returns the customer's orders with their display state.
	List(ctx context.Context, token string, locale currency.Locale) ([]OrderView, error)

	// Cancel cancels an order that is still pending.
	Cancel(ctx context.Context, token, orderID string) error

	// RequestReturn files a return request with evidence images.
	RequestReturn(ctx context.Context, token, orderID string, req model.ReturnRequest) error

	// Invoice downloads the order's invoice and archives a copy under owner.
	Invoice(ctx context.Context, token, owner, orderID string) (InvoiceFile, error)

	// Tracking returns the shipment timeline of an order.
	Tracking(ctx context.Context, token, orderID string) ([]model.ShipmentEvent, error)
}

// AccountService defines profile and password operations.
type AccountService interface {
	// UpdateProfile validates and saves the profile, returning the updated user.
	UpdateProfile(ctx context.Context, token string, current model.User, upd model.ProfileUpdate) (model.User, error)

	// ChangePassword validates and submits a password change.
	ChangePassword(ctx context.Context, token string, pc model.PasswordChange) error
}

// NotificationService defines notification history operations.
type NotificationService interface {
	// List fetches the notification history.
	List(ctx context.Context, token string) (model.NotificationFeed, error)

	// MarkRead marks one notification as read on the backend.
	MarkRead(ctx context.Context, token, id string) error
}
