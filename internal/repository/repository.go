package repository

import (
	"context"

	"storefront/internal/model"
)

// CartRepository stores a session's cart lines so the cart survives restarts
// and idle-session sweeps.
type CartRepository interface {
	// Load returns the stored lines in their original order, or nil when the
	// session has no stored cart.
	Load(ctx context.Context, sessionID string) ([]model.CartLine, error)

	// Save replaces the stored lines for the session.
	Save(ctx context.Context, sessionID string, lines []model.CartLine) error

	// Delete removes the session's stored cart. Deleting a missing cart is not an error.
	Delete(ctx context.Context, sessionID string) error
}
