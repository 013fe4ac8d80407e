// Package events publishes storefront checkout events.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names a storefront event.
type Type string

const (
	OrderPlaced     Type = "order.placed"
	PaymentVerified Type = "payment.verified"
	PaymentFailed   Type = "payment.failed"
)

// Event is the JSON message published for checkout milestones.
type Event struct {
	ID            string    `json:"id"`
	Type          Type      `json:"type"`
	OrderID       string    `json:"orderId"`
	SessionID     string    `json:"sessionId"`
	UserID        string    `json:"userId,omitempty"`
	PaymentMethod string    `json:"paymentMethod"`
	Amount        int64     `json:"amount"`
	Currency      string    `json:"currency"`
	Reason        string    `json:"reason,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// New stamps an event with a fresh id and the current time.
func New(t Type, orderID string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		OrderID:    orderID,
		OccurredAt: time.Now().UTC(),
	}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

type nopPublisher struct{}

// NewNopPublisher returns a Publisher that drops every event.
func NewNopPublisher() Publisher {
	return nopPublisher{}
}

func (nopPublisher) Publish(context.Context, Event) error { return nil }

func (nopPublisher) Close() error { return nil }
