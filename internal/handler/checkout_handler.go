package handler

import (
	"errors"
	"net/http"

	"storefront/internal/checkout"
	"storefront/internal/middleware"
	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/rs/zerolog"
)

// CheckoutHandler drives the session's checkout state machine.
type CheckoutHandler struct {
	logger zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		logger: logger.With().Str("handler", "checkout").Logger(),
	}
}

// checkoutError carries the state the client should render next to the error.
type checkoutError struct {
	model.ErrorResponse
	State   checkout.State `json:"state"`
	OrderID string         `json:"orderId,omitempty"`
}

// Get handles GET /api/checkout.
func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, s.Checkout.Snapshot())
}

type placeOrderRequest struct {
	AddressID     string              `json:"addressId"`
	PaymentMethod model.PaymentMethod `json:"paymentMethod"`
}

// PlaceOrder handles POST /api/checkout.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req placeOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = model.PaymentCOD
	}

	res, err := s.Checkout.PlaceOrder(r.Context(), checkout.Request{
		AddressID:     req.AddressID,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		h.writeCheckoutError(w, r, res, err)
		return
	}

	status := http.StatusOK
	if res.State == checkout.StateConfirmed {
		status = http.StatusCreated
	}
	writeJSON(w, status, res)
}

type paymentOutcomeRequest struct {
	Outcome           payment.OutcomeKind `json:"outcome"`
	RazorpayOrderID   string              `json:"razorpayOrderId"`
	RazorpayPaymentID string              `json:"razorpayPaymentId"`
	RazorpaySignature string              `json:"razorpaySignature"`
	Reason            string              `json:"reason"`
}

// CompletePayment handles POST /api/checkout/payment with the widget's outcome.
func (h *CheckoutHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	s, err := current(r)
	if err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	var req paymentOutcomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err, h.logger)
		return
	}

	switch req.Outcome {
	case payment.OutcomeSuccess, payment.OutcomeFailure, payment.OutcomeDismissed:
	default:
		writeError(w, r, model.NewDomainError(model.ErrCodeMissingField, "outcome must be success, failure or dismissed"), h.logger)
		return
	}

	res, err := s.Checkout.CompletePayment(r.Context(), payment.Outcome{
		Kind:           req.Outcome,
		GatewayOrderID: req.RazorpayOrderID,
		PaymentID:      req.RazorpayPaymentID,
		Signature:      req.RazorpaySignature,
		Reason:         req.Reason,
	})
	if err != nil {
		h.writeCheckoutError(w, r, res, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *CheckoutHandler) writeCheckoutError(w http.ResponseWriter, r *http.Request, res checkout.Result, err error) {
	var domainErr *model.DomainError
	if !errors.As(err, &domainErr) {
		writeError(w, r, err, h.logger)
		return
	}

	status, resp := errorResponse(err)
	resp.CorrelationID = middleware.CorrelationIDFrom(r.Context())
	if res.Redirect != "" {
		resp.Redirect = res.Redirect
	}

	h.logger.Warn().
		Str("code", resp.Error).
		Str("state", string(res.State)).
		Str("order_id", res.OrderID).
		Msg("checkout rejected")

	writeJSON(w, status, checkoutError{ErrorResponse: resp, State: res.State, OrderID: res.OrderID})
}
