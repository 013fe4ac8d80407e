package tracking

import (
	"strings"
	"time"

	"storefront/internal/model"
)

const (
	recentlyCreated = "Recently Created"
	notPickedUp     = "Parcel has not been picked up yet."
	awaitingPickup  = "Shipment manifested with the courier. Tracking updates after pickup is complete."
)

// NormalizeFeed turns a tracking provider response into a timeline.
// A just-created shipment yields a single synthetic event; otherwise the
// events list is used, then the tracking list, then the response itself.
func NormalizeFeed(feed model.TrackingFeed, now time.Time) []model.ShipmentEvent {
	if feed.Success && strings.EqualFold(strings.TrimSpace(feed.Status), recentlyCreated) {
		msg := feed.Message
		if msg == "" {
			msg = awaitingPickup
		}
		return []model.ShipmentEvent{{
			Status:   notPickedUp,
			Message:  msg,
			Datetime: now.UTC().Format(time.RFC3339),
		}}
	}
	if len(feed.Events) > 0 {
		return feed.Events
	}
	if len(feed.Tracking) > 0 {
		return feed.Tracking
	}
	if feed.Status == "" && feed.Message == "" {
		return []model.ShipmentEvent{}
	}
	return []model.ShipmentEvent{{Status: feed.Status, Message: feed.Message}}
}
