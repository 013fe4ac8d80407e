// Package tracking projects order records onto the order progress stepper
// and normalises shipment timelines.
package tracking

import (
	"strings"
	"time"

	"storefront/internal/model"
)

// ReturnWindow is how long after delivery a return may be requested.
const ReturnWindow = 7 * 24 * time.Hour

// Stage is a position on the order stepper. NoStage marks orders that are
// not on it (cancelled or unrecognised status).
type Stage int

const (
	NoStage Stage = iota - 1
	StagePlaced
	StagePreparing
	StageShipped
	StageDelivered
)

// Stages lists the stepper positions in display order.
var Stages = []Stage{StagePlaced, StagePreparing, StageShipped, StageDelivered}

var stageLabels = map[Stage]string{
	StagePlaced:    "Order Placed",
	StagePreparing: "Preparing",
	StageShipped:   "On the Way",
	StageDelivered: "Delivered",
}

// Label is the stepper caption for s.
func (s Stage) Label() string {
	return stageLabels[s]
}

const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusCancelled = "cancelled"
)

var stageByStatus = map[string]Stage{
	"pending":    StagePlaced,
	"placed":     StagePlaced,
	"processing": StagePreparing,
	"preparing":  StagePreparing,
	"shipped":    StageShipped,
	"delivered":  StageDelivered,
}

// NormalizeStatus returns the first non-empty of the order's status fields,
// lowercased, or "pending" when none is set.
func NormalizeStatus(o model.Order) string {
	for _, s := range []string{o.OrderStatus, o.Status, o.PaymentStatus} {
		if s = strings.TrimSpace(s); s != "" {
			return strings.ToLower(s)
		}
	}
	return StatusPending
}

// Cancelled reports whether any of the order's status fields says cancelled.
func Cancelled(o model.Order) bool {
	for _, s := range []string{o.OrderStatus, o.Status, o.PaymentStatus} {
		if isCancelled(s) {
			return true
		}
	}
	return false
}

func isCancelled(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "cancelled" || s == "canceled"
}

// StageOf maps a normalised status token onto the stepper.
func StageOf(status string) Stage {
	if stage, ok := stageByStatus[strings.ToLower(strings.TrimSpace(status))]; ok {
		return stage
	}
	return NoStage
}

// Progress is an order's stepper state.
type Progress struct {
	Status    string
	Stage     Stage
	Cancelled bool
	Badge     string
}

// Project derives the stepper state of o. Cancellation wins over every other field.
func Project(o model.Order) Progress {
	status := NormalizeStatus(o)
	if Cancelled(o) {
		return Progress{Status: StatusCancelled, Stage: NoStage, Cancelled: true, Badge: Badge(StatusCancelled)}
	}
	return Progress{Status: status, Stage: StageOf(status), Badge: Badge(status)}
}

// Active reports whether step s is reached. Steps light up left to right
// and none light up for orders off the stepper.
func (p Progress) Active(s Stage) bool {
	return p.Stage != NoStage && s <= p.Stage
}

var badges = map[string]string{
	"delivered":  "Delivered",
	"shipped":    "Shipped",
	"processing": "Processing",
}

// Badge is the status pill label. Anything not yet processing reads "Order Placed".
func Badge(status string) string {
	status = strings.ToLower(strings.TrimSpace(status))
	if isCancelled(status) {
		return "Cancelled"
	}
	if b, ok := badges[status]; ok {
		return b
	}
	return "Order Placed"
}

// Cancellable reports whether the customer may still cancel o.
func Cancellable(o model.Order) bool {
	return !Cancelled(o) && NormalizeStatus(o) == StatusPending
}

// DeliveredAt is the best known delivery time of o: deliveredAt, else
// updatedAt, else createdAt.
func DeliveredAt(o model.Order) time.Time {
	switch {
	case o.DeliveredAt != nil && !o.DeliveredAt.IsZero():
		return *o.DeliveredAt
	case o.UpdatedAt != nil && !o.UpdatedAt.IsZero():
		return *o.UpdatedAt
	default:
		return o.CreatedAt
	}
}

// Returnable reports whether a return may be requested for o at now: the
// order is delivered, no return was filed yet and delivery is at most
// ReturnWindow ago.
func Returnable(o model.Order, now time.Time) bool {
	if Cancelled(o) || o.ReturnRequested || NormalizeStatus(o) != StatusDelivered {
		return false
	}
	delivered := DeliveredAt(o)
	if delivered.IsZero() {
		return false
	}
	return now.Sub(delivered) <= ReturnWindow
}
