// Package checkout drives an order from the shopper's cart to a confirmed
// order, either paid on delivery or through the hosted payment widget.
package checkout

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/currency"
	"storefront/internal/events"
	"storefront/internal/model"
	"storefront/internal/payment"

	"github.com/rs/zerolog"
)

// State is a checkout state.
type State string

const (
	StateIdle                  State = "idle"
	StateValidating            State = "validating"
	StateSubmitting            State = "submitting"
	StateAwaitingGatewayScript State = "awaiting_gateway_script"
	StateCreatingOrder         State = "creating_order"
	StateOpeningGateway        State = "opening_gateway"
	StateAwaitingUserPayment   State = "awaiting_user_payment"
	StateVerifying             State = "verifying"
	StateConfirmed             State = "confirmed"
	StateFailed                State = "failed"
)

const (
	// OrdersPath is where the shopper lands after a confirmed order.
	OrdersPath = "/orders"
	// LoginPath is where the shopper is sent when no credential is held.
	LoginPath = "/auth/login"
	// JustPlacedOrderFlag is set once an order is confirmed and read once by order history.
	JustPlacedOrderFlag = "just_placed_order"
)

// ErrSessionClosed is returned when a completion arrives after the owning
// session has gone away. The result is discarded.
var ErrSessionClosed = errors.New("checkout session closed")

// OrderAPI is the part of the backend the checkout talks to.
type OrderAPI interface {
	CreateOrder(ctx context.Context, token string, sub model.OrderSubmission) (model.PlacedOrder, error)
	VerifyPayment(ctx context.Context, token string, v model.PaymentVerification) error
}

// FlagSetter records read-once flags for the session.
type FlagSetter interface {
	SetFlag(name string)
}

// Request is the shopper's place-order action.
type Request struct {
	AddressID     string
	PaymentMethod model.PaymentMethod
}

// Result is what the client renders after an action.
type Result struct {
	State    State           `json:"state"`
	OrderID  string          `json:"orderId,omitempty"`
	Redirect string          `json:"redirect,omitempty"`
	Widget   *payment.Widget `json:"widget,omitempty"`
}

// Snapshot is the orchestrator's current state for display.
type Snapshot struct {
	State     State           `json:"state"`
	InFlight  bool            `json:"inFlight"`
	OrderID   string          `json:"orderId,omitempty"`
	Widget    *payment.Widget `json:"widget,omitempty"`
	LastError string          `json:"lastError,omitempty"`
}

// Config wires an Orchestrator to the session it serves.
type Config struct {
	SessionID      string
	DefaultCountry string
	Cart           *cart.Cart
	Auth           *auth.Holder
	Locale         func() currency.Locale
	Orders         OrderAPI
	Gateway        payment.Gateway
	Events         events.Publisher
	Flags          FlagSetter
}

type pendingPayment struct {
	orderID      string
	gatewayOrder model.GatewayOrder
	token        string
	method       model.PaymentMethod
	widget       payment.Widget
}

// Orchestrator is one session's checkout state machine. Only one order may
// be in flight at a time; the guard is held from validation until the
// payment outcome is known.
type Orchestrator struct {
	cfg    Config
	logger zerolog.Logger

	inFlight atomic.Bool
	closed   atomic.Bool

	mu      sync.Mutex
	state   State
	pending *pendingPayment
	lastErr error
}

// New creates an idle orchestrator.
func New(cfg Config, logger zerolog.Logger) *Orchestrator {
	if cfg.Events == nil {
		cfg.Events = events.NewNopPublisher()
	}
	return &Orchestrator{
		cfg:    cfg,
		logger: logger.With().Str("component", "checkout").Str("session_id", cfg.SessionID).Logger(),
		state:  StateIdle,
	}
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Snapshot returns the current state for display.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	s := Snapshot{State: o.state, InFlight: o.inFlight.Load()}
	if o.pending != nil {
		w := o.pending.widget
		s.OrderID = o.pending.orderID
		s.Widget = &w
	}
	if o.lastErr != nil {
		s.LastError = o.lastErr.Error()
	}
	return s
}

// Close marks the owning session as gone. Outstanding completions are discarded.
func (o *Orchestrator) Close() {
	o.closed.Store(true)
}

// PlaceOrder validates the session and starts the chosen payment path.
// Validation failures leave the state Idle and issue no backend call.
// On the online path the result carries the widget options and the state is
// AwaitingUserPayment until CompletePayment is called.
func (o *Orchestrator) PlaceOrder(ctx context.Context, req Request) (Result, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return Result{State: o.State()}, model.ErrCheckoutInProgress
	}
	keepGuard := false
	defer func() {
		if !keepGuard {
			o.inFlight.Store(false)
		}
	}()

	o.transition(StateValidating, nil)

	lines, addr, token, err := o.validate(req)
	if err != nil {
		o.transition(StateIdle, err)
		res := Result{State: StateIdle}
		if errors.Is(err, model.ErrLoginRequired) {
			res.Redirect = LoginPath
		}
		return res, err
	}

	sub := BuildSubmission(lines, addr, req.PaymentMethod, o.cfg.DefaultCountry)

	if req.PaymentMethod == model.PaymentCOD {
		return o.payOnDelivery(ctx, token, sub)
	}

	res, err := o.payOnline(ctx, token, sub)
	if err == nil && res.State == StateAwaitingUserPayment {
		keepGuard = true
	}
	return res, err
}

// validate checks the credential first so a signed-out shopper is sent to
// login rather than told their address is unknown.
func (o *Orchestrator) validate(req Request) ([]model.CartLine, model.Address, string, error) {
	cred, ok := o.cfg.Auth.Credential()
	if !ok || cred.Token == "" {
		return nil, model.Address{}, "", model.ErrLoginRequired
	}

	profile := o.cfg.Auth.Profile()
	addr, err := MatchAddress(profile.Addresses, req.AddressID)
	if err != nil {
		return nil, model.Address{}, "", err
	}

	lines := o.cfg.Cart.Lines()
	if len(lines) == 0 {
		return nil, model.Address{}, "", model.ErrEmptyCart
	}

	if !req.PaymentMethod.Valid() {
		return nil, model.Address{}, "", model.ErrInvalidPaymentMethod
	}

	return lines, addr, cred.Token, nil
}

func (o *Orchestrator) payOnDelivery(ctx context.Context, token string, sub model.OrderSubmission) (Result, error) {
	o.transition(StateSubmitting, nil)

	placed, err := o.cfg.Orders.CreateOrder(ctx, token, sub)
	if o.closed.Load() {
		return Result{}, ErrSessionClosed
	}
	if err != nil {
		o.logger.Warn().Err(err).Msg("cash on delivery order failed")
		o.transition(StateIdle, err)
		return Result{State: StateIdle}, err
	}

	o.confirm(ctx, events.OrderPlaced, placed.Order.ID, sub.PaymentMethod, sub.TotalAmount, o.currencyCode())
	return Result{State: StateConfirmed, OrderID: placed.Order.ID, Redirect: OrdersPath}, nil
}

func (o *Orchestrator) payOnline(ctx context.Context, token string, sub model.OrderSubmission) (Result, error) {
	o.transition(StateAwaitingGatewayScript, nil)
	if err := o.cfg.Gateway.Load(ctx); err != nil {
		if o.closed.Load() {
			return Result{}, ErrSessionClosed
		}
		o.logger.Warn().Err(err).Msg("payment gateway unavailable")
		o.transition(StateIdle, model.ErrGatewayUnavailable)
		return Result{State: StateIdle}, model.ErrGatewayUnavailable
	}

	o.transition(StateCreatingOrder, nil)
	placed, err := o.cfg.Orders.CreateOrder(ctx, token, sub)
	if o.closed.Load() {
		return Result{}, ErrSessionClosed
	}
	if err != nil {
		o.logger.Warn().Err(err).Msg("online order creation failed")
		o.transition(StateIdle, err)
		return Result{State: StateIdle}, err
	}

	if placed.GatewayOrder == nil || placed.GatewayOrder.ID == "" {
		o.logger.Error().Str("order_id", placed.Order.ID).Msg("order created without gateway handle")
		o.transition(StateFailed, model.ErrPaymentDetailsMissing)
		return Result{State: StateFailed, OrderID: placed.Order.ID}, model.ErrPaymentDetailsMissing
	}

	o.transition(StateOpeningGateway, nil)
	gw := *placed.GatewayOrder
	profile := o.cfg.Auth.Profile()
	widget, err := o.cfg.Gateway.Open(ctx, payment.OpenRequest{
		GatewayOrderID: gw.ID,
		Amount:         gw.Amount,
		Currency:       gw.Currency,
		Description:    "Order Payment",
		Customer: payment.Customer{
			Name:    profile.DisplayName(),
			Email:   profile.Email,
			Contact: profile.Phone,
		},
	})
	if err != nil {
		o.logger.Error().Err(err).Str("order_id", placed.Order.ID).Msg("failed to open payment widget")
		o.transition(StateFailed, model.ErrGatewayUnavailable)
		return Result{State: StateFailed, OrderID: placed.Order.ID}, model.ErrGatewayUnavailable
	}

	o.mu.Lock()
	o.pending = &pendingPayment{
		orderID:      placed.Order.ID,
		gatewayOrder: gw,
		token:        token,
		method:       sub.PaymentMethod,
		widget:       widget,
	}
	o.state = StateAwaitingUserPayment
	o.lastErr = nil
	o.mu.Unlock()

	o.logger.Info().
		Str("order_id", placed.Order.ID).
		Str("gateway_order_id", gw.ID).
		Int64("amount", gw.Amount).
		Msg("awaiting payment")

	return Result{State: StateAwaitingUserPayment, OrderID: placed.Order.ID, Widget: &widget}, nil
}

// CompletePayment feeds the widget's outcome into the state machine. The
// server-side order is never rolled back; on failure it stays unpaid.
func (o *Orchestrator) CompletePayment(ctx context.Context, outcome payment.Outcome) (Result, error) {
	o.mu.Lock()
	p := o.pending
	if p == nil || o.state != StateAwaitingUserPayment {
		o.mu.Unlock()
		return Result{State: o.State()}, model.ErrNoPaymentPending
	}
	o.pending = nil
	o.mu.Unlock()
	defer o.inFlight.Store(false)

	if o.closed.Load() {
		return Result{}, ErrSessionClosed
	}

	switch outcome.Kind {
	case payment.OutcomeDismissed:
		o.fail(ctx, p, model.ErrPaymentCancelled, "dismissed")
		return Result{State: StateFailed, OrderID: p.orderID}, model.ErrPaymentCancelled

	case payment.OutcomeSuccess:
		if !outcome.Valid() || outcome.GatewayOrderID != p.gatewayOrder.ID {
			o.fail(ctx, p, model.ErrVerificationFailed, "incomplete or mismatched payment details")
			return Result{State: StateFailed, OrderID: p.orderID}, model.ErrVerificationFailed
		}
		return o.verify(ctx, p, outcome)

	default:
		reason := outcome.Reason
		if reason == "" {
			reason = "payment failed"
		}
		o.fail(ctx, p, model.ErrPaymentFailed, reason)
		return Result{State: StateFailed, OrderID: p.orderID}, model.ErrPaymentFailed
	}
}

func (o *Orchestrator) verify(ctx context.Context, p *pendingPayment, outcome payment.Outcome) (Result, error) {
	o.transition(StateVerifying, nil)

	err := o.cfg.Orders.VerifyPayment(ctx, p.token, model.PaymentVerification{
		GatewayOrderID: outcome.GatewayOrderID,
		PaymentID:      outcome.PaymentID,
		Signature:      outcome.Signature,
		OrderID:        p.orderID,
	})
	if o.closed.Load() {
		return Result{}, ErrSessionClosed
	}
	if err != nil {
		o.logger.Error().Err(err).Str("order_id", p.orderID).Msg("payment verification failed")
		o.fail(ctx, p, model.ErrVerificationFailed, err.Error())
		return Result{State: StateFailed, OrderID: p.orderID}, model.ErrVerificationFailed
	}

	o.confirm(ctx, events.PaymentVerified, p.orderID, p.method, p.gatewayOrder.Amount, p.gatewayOrder.Currency)
	return Result{State: StateConfirmed, OrderID: p.orderID, Redirect: OrdersPath}, nil
}

func (o *Orchestrator) confirm(ctx context.Context, t events.Type, orderID string, method model.PaymentMethod, amount int64, currencyCode string) {
	o.cfg.Cart.Clear()
	if o.cfg.Flags != nil {
		o.cfg.Flags.SetFlag(JustPlacedOrderFlag)
	}
	o.transition(StateConfirmed, nil)

	o.logger.Info().
		Str("order_id", orderID).
		Str("payment_method", string(method)).
		Int64("amount", amount).
		Msg("order confirmed")

	ev := events.New(t, orderID)
	ev.PaymentMethod = string(method)
	ev.Amount = amount
	ev.Currency = currencyCode
	o.publish(ctx, ev)
}

func (o *Orchestrator) fail(ctx context.Context, p *pendingPayment, err error, reason string) {
	o.transition(StateFailed, err)
	o.logger.Warn().
		Str("order_id", p.orderID).
		Str("reason", reason).
		Msg("online payment did not complete")

	ev := events.New(events.PaymentFailed, p.orderID)
	ev.PaymentMethod = string(p.method)
	ev.Amount = p.gatewayOrder.Amount
	ev.Currency = p.gatewayOrder.Currency
	ev.Reason = reason
	o.publish(ctx, ev)
}

func (o *Orchestrator) publish(ctx context.Context, ev events.Event) {
	ev.SessionID = o.cfg.SessionID
	if user, ok := o.cfg.Auth.User(); ok {
		ev.UserID = user.ID
	}
	if err := o.cfg.Events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		o.logger.Warn().Err(err).Str("event_type", string(ev.Type)).Msg("failed to publish checkout event")
	}
}

func (o *Orchestrator) transition(s State, err error) {
	o.mu.Lock()
	o.state = s
	o.lastErr = err
	o.mu.Unlock()
}

func (o *Orchestrator) currencyCode() string {
	if o.cfg.Locale == nil {
		return ""
	}
	return o.cfg.Locale().Currency()
}
