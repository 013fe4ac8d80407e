package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"storefront/internal/backend"
	"storefront/internal/currency"
	"storefront/internal/invoice"
	"storefront/internal/model"
	"storefront/internal/tracking"

	"github.com/rs/zerolog"
)

// DefaultReturnCategory is the reason category sent when none is given.
const DefaultReturnCategory = "damaged"

// OrderView is an order with its display state.
type OrderView struct {
	model.Order
	DisplayStatus string `json:"displayStatus"`
	Badge         string `json:"badge"`
	Cancelled     bool   `json:"cancelled"`
	Cancellable   bool   `json:"cancellable"`
	Returnable    bool   `json:"returnable"`
	Steps         []Step `json:"steps"`
	TotalLabel    string `json:"totalLabel"`
	InvoiceNumber string `json:"invoiceNumber"`
	TrackingRef   string `json:"trackingRef,omitempty"`
}

// Step is one stepper position of an order.
type Step struct {
	Label  string `json:"label"`
	Active bool   `json:"active"`
}

// InvoiceFile is a downloadable invoice.
type InvoiceFile struct {
	Name string
	Data []byte
}

// orderService implements OrderService.
type orderService struct {
	api           OrderBackend
	archive       invoice.Store
	invoicePrefix string
	now           func() time.Time
	logger        zerolog.Logger
}

// NewOrderService creates a new order service. archive may be nil.
func NewOrderService(api OrderBackend, archive invoice.Store, invoicePrefix string, logger zerolog.Logger) OrderService {
	return &orderService{
		api:           api,
		archive:       archive,
		invoicePrefix: invoicePrefix,
		now:           time.Now,
		logger:        logger.With().Str("service", "order").Logger(),
	}
}

// ViewOrder derives the display state of o in locale as of now.
func ViewOrder(o model.Order, locale currency.Locale, now time.Time) OrderView {
	progress := tracking.Project(o)

	steps := make([]Step, len(tracking.Stages))
	for i, st := range tracking.Stages {
		steps[i] = Step{Label: st.Label(), Active: progress.Active(st)}
	}

	return OrderView{
		Order:         o,
		DisplayStatus: progress.Status,
		Badge:         progress.Badge,
		Cancelled:     progress.Cancelled,
		Cancellable:   tracking.Cancellable(o),
		Returnable:    tracking.Returnable(o, now),
		Steps:         steps,
		TotalLabel:    locale.Format(o.DisplayTotal()),
		InvoiceNumber: o.InvoiceNumber(),
		TrackingRef:   o.ShipmentWaybill(),
	}
}

// List returns the customer's orders with their display state.
func (s *orderService) List(ctx context.Context, token string, locale currency.Locale) ([]OrderView, error) {
	orders, err := s.api.Orders(ctx, token)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, err
	}

	now := s.now()
	views := make([]OrderView, len(orders))
	for i, o := range orders {
		views[i] = ViewOrder(o, locale, now)
	}

	s.logger.Debug().Int("count", len(views)).Msg("retrieved orders")
	return views, nil
}

func (s *orderService) find(ctx context.Context, token, orderID string) (model.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return model.Order{}, model.ErrOrderNotFound
	}

	orders, err := s.api.Orders(ctx, token)
	if err != nil {
		return model.Order{}, err
	}
	for _, o := range orders {
		if o.ID == orderID {
			return o, nil
		}
	}
	return model.Order{}, model.ErrOrderNotFound
}

// Cancel cancels an order that is still pending.
func (s *orderService) Cancel(ctx context.Context, token, orderID string) error {
	o, err := s.find(ctx, token, orderID)
	if err != nil {
		return err
	}

	if !tracking.Cancellable(o) {
		s.logger.Warn().
			Str("order_id", orderID).
			Str("status", tracking.NormalizeStatus(o)).
			Msg("order is not cancellable")
		return model.ErrOrderNotCancellable
	}

	if err := s.api.CancelOrder(ctx, token, orderID); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to cancel order")
		return err
	}

	s.logger.Info().Str("order_id", orderID).Msg("order cancelled")
	return nil
}

// RequestReturn validates and files a return request for a delivered order
// still inside its return window.
func (s *orderService) RequestReturn(ctx context.Context, token, orderID string, req model.ReturnRequest) error {
	if strings.TrimSpace(orderID) == "" {
		return model.ErrOrderNotFound
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if req.Reason == "" {
		return model.ErrReturnReasonRequired
	}
	if len(req.Images) == 0 {
		return model.ErrReturnImagesRequired
	}
	if strings.TrimSpace(req.ReasonCategory) == "" {
		req.ReasonCategory = DefaultReturnCategory
	}

	o, err := s.find(ctx, token, orderID)
	if err != nil {
		return err
	}
	if !tracking.Returnable(o, s.now()) {
		s.logger.Warn().
			Str("order_id", orderID).
			Str("status", tracking.NormalizeStatus(o)).
			Bool("return_requested", o.ReturnRequested).
			Msg("order is not returnable")
		return model.ErrOrderNotReturnable
	}

	if err := s.api.RequestReturn(ctx, token, orderID, req); err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to submit return request")
		return err
	}

	s.logger.Info().
		Str("order_id", orderID).
		Int("images", len(req.Images)).
		Msg("return requested")
	return nil
}

// Invoice downloads the invoice and archives a copy under owner. When the
// backend is unreachable or failing an archived copy is served instead;
// a rejection such as 403 or 404 is always returned as is.
func (s *orderService) Invoice(ctx context.Context, token, owner, orderID string) (InvoiceFile, error) {
	if strings.TrimSpace(orderID) == "" {
		return InvoiceFile{}, model.ErrOrderNotFound
	}
	name := invoice.FileName(s.invoicePrefix, orderID)
	key := ""
	if strings.TrimSpace(owner) != "" {
		key = invoice.ArchiveKey(owner, orderID)
	}

	data, err := s.api.Invoice(ctx, token, orderID)
	if err != nil {
		if key != "" && backendUnavailable(err) {
			if archived, ok := s.archived(ctx, key); ok {
				s.logger.Warn().Err(err).Str("order_id", orderID).Msg("serving archived invoice")
				return InvoiceFile{Name: name, Data: archived}, nil
			}
		}
		s.logger.Error().Err(err).Str("order_id", orderID).Msg("failed to download invoice")
		return InvoiceFile{}, err
	}

	if s.archive != nil && key != "" {
		if err := s.archive.Put(ctx, key, data); err != nil {
			s.logger.Warn().Err(err).Str("order_id", orderID).Msg("failed to archive invoice")
		}
	}

	return InvoiceFile{Name: name, Data: data}, nil
}

// backendUnavailable reports whether err is a transport failure, an open
// breaker or a 5xx, as opposed to the backend rejecting the request.
func backendUnavailable(err error) bool {
	var apiErr *backend.APIError
	if !errors.As(err, &apiErr) {
		return true
	}
	return apiErr.Err != nil || apiErr.Status >= http.StatusInternalServerError
}

func (s *orderService) archived(ctx context.Context, name string) ([]byte, bool) {
	if s.archive == nil {
		return nil, false
	}
	data, err := s.archive.Get(ctx, name)
	if err != nil {
		if !errors.Is(err, invoice.ErrNotFound) {
			s.logger.Warn().Err(err).Str("name", name).Msg("failed to read invoice archive")
		}
		return nil, false
	}
	return data, true
}

// Tracking returns the shipment timeline. Orders without a waybill have an
// empty timeline.
func (s *orderService) Tracking(ctx context.Context, token, orderID string) ([]model.ShipmentEvent, error) {
	o, err := s.find(ctx, token, orderID)
	if err != nil {
		return nil, err
	}

	waybill := o.ShipmentWaybill()
	if waybill == "" {
		return []model.ShipmentEvent{}, nil
	}

	feed, err := s.api.Track(ctx, token, waybill)
	if err != nil {
		s.logger.Error().Err(err).Str("order_id", orderID).Str("waybill", waybill).Msg("failed to fetch tracking")
		return nil, fmt.Errorf("failed to fetch tracking: %w", err)
	}
	return tracking.NormalizeFeed(feed, s.now()), nil
}
