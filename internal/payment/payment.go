// Package payment is the storefront's port to a hosted payment widget.
package payment

import (
	"context"
	"errors"
)

// ErrNotLoaded is returned by Open before Load has succeeded.
var ErrNotLoaded = errors.New("payment gateway script not loaded")

// Gateway loads the hosted widget and prepares it for a gateway order.
type Gateway interface {
	// Load makes sure the widget script is available. Success is remembered
	// for the lifetime of the gateway; failures are not.
	Load(ctx context.Context) error

	// Open returns the options the client opens the hosted widget with.
	Open(ctx context.Context, req OpenRequest) (Widget, error)
}

// OpenRequest describes the payment the widget collects.
type OpenRequest struct {
	GatewayOrderID string
	Amount         int64 // minor units
	Currency       string
	Description    string
	Customer       Customer
}

// Customer prefills the widget's contact fields.
type Customer struct {
	Name    string `json:"name,omitempty"`
	Email   string `json:"email,omitempty"`
	Contact string `json:"contact,omitempty"`
}

// Theme is the widget's colour scheme.
type Theme struct {
	Color string `json:"color,omitempty"`
}

// Widget is the options object handed to the hosted checkout script.
type Widget struct {
	Key         string   `json:"key"`
	ScriptURL   string   `json:"scriptUrl"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	OrderID     string   `json:"order_id"`
	Prefill     Customer `json:"prefill"`
	Theme       Theme    `json:"theme"`
}

// OutcomeKind is how the shopper left the widget.
type OutcomeKind string

const (
	OutcomeSuccess   OutcomeKind = "success"
	OutcomeFailure   OutcomeKind = "failure"
	OutcomeDismissed OutcomeKind = "dismissed"
)

// Outcome is the widget's report, delivered back to the checkout.
// Success carries the three verification fields; Failure carries a reason.
type Outcome struct {
	Kind           OutcomeKind
	GatewayOrderID string
	PaymentID      string
	Signature      string
	Reason         string
}

// Valid reports whether the outcome is well formed for its kind.
func (o Outcome) Valid() bool {
	switch o.Kind {
	case OutcomeSuccess:
		return o.GatewayOrderID != "" && o.PaymentID != "" && o.Signature != ""
	case OutcomeFailure, OutcomeDismissed:
		return true
	default:
		return false
	}
}
