package checkout

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/farmeazy/farmgate/internal/backend"
	d "github.com/farmeazy/farmgate/internal/domain"
	"github.com/farmeazy/farmgate/internal/gateway"
	"github.com/farmeazy/farmgate/internal/pricing"
)

// Cart is the slice of the cart service the orchestrator needs: read the
// lines at checkout time, clear them after a successful order.
type Cart interface {
	Lines(ctx context.Context) ([]d.CartLine, error)
	Clear(ctx context.Context) error
}

// Backend is the slice of the marketplace client driven by checkout.
type Backend interface {
	CreateIntent(ctx context.Context, amountMinorUnits int64, email, phone string) (backend.Intent, error)
	VerifyPayment(ctx context.Context, req backend.VerifyRequest) (bool, error)
	CreateOrder(ctx context.Context, req backend.OrderRequest) (backend.Order, error)
	CancelOrder(ctx context.Context, orderID string) error
}

// Gateway is the payment widget adapter.
type Gateway interface {
	EnsureLoaded(ctx context.Context) error
	Open(intent gateway.Intent, cb gateway.Callbacks) error
}

// CoinBalance reads the loyalty balance; a failed read is a zero balance.
type CoinBalance interface {
	Balance(ctx context.Context) int
}

// Request is one user-initiated checkout attempt.
type Request struct {
	PaymentMethod d.PaymentMethod
	Address       backend.Address
	Coins         d.CoinSelection
}

// Snapshot is the orchestrator state as the UI sees it.
type Snapshot struct {
	State     d.CheckoutState     `json:"state"`
	OrderID   string              `json:"order_id,omitempty"`
	Pricing   d.OrderPricing      `json:"pricing"`
	Intent    *backend.Intent     `json:"intent,omitempty"`
	Hold      *d.PendingOrderHold `json:"hold,omitempty"`
	LastError string              `json:"last_error,omitempty"`
}

type Config struct {
	// HoldSeconds is the pending-order retry window. Zero means the
	// standard 600 second hold.
	HoldSeconds int
	// Tick is the countdown resolution, one second unless overridden.
	Tick time.Duration
}

// Orchestrator drives the end-to-end checkout flow: validate, create a
// payment intent, open the gateway, verify, place the order, and manage the
// retry hold on failure. One instance per UI session.
type Orchestrator struct {
	cart    Cart
	backend Backend
	gateway Gateway
	coins   CoinBalance

	holdSeconds int
	tick        time.Duration

	// ctx outlives any single UI request: gateway callbacks and hold
	// bookkeeping run on it so a mid-payment navigation does not lose a
	// pending order. Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    d.CheckoutState
	req      Request
	lines    []d.CartLine
	pricing  d.OrderPricing
	intent   backend.Intent
	hold     *d.PendingOrderHold
	holdStop chan struct{}
	orderID  string
	lastErr  error
}

func NewOrchestrator(cart Cart, be Backend, gw Gateway, coins CoinBalance, cfg Config) *Orchestrator {
	if cfg.HoldSeconds == 0 {
		cfg.HoldSeconds = d.HoldDurationSeconds
	}
	if cfg.Tick == 0 {
		cfg.Tick = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		cart:        cart,
		backend:     be,
		gateway:     gw,
		coins:       coins,
		holdSeconds: cfg.HoldSeconds,
		tick:        cfg.Tick,
		ctx:         ctx,
		cancel:      cancel,
		state:       d.CheckoutStateIdle,
	}
}

// transition moves the state machine, guarded by the legal-transition table.
// Caller holds the mutex.
func (o *Orchestrator) transition(to d.CheckoutState) error {
	if !d.CanTransitionTo(o.state, to) {
		return fmt.Errorf("%w: %s -> %s", IllegalTransitionError, o.state, to)
	}
	o.state = to
	return nil
}

// Start begins a checkout attempt. Validation failures are local and leave
// the machine in IDLE with no backend call made; any backend failure before
// the gateway opens also returns to IDLE, so the attempt can simply be
// repeated.
func (o *Orchestrator) Start(ctx context.Context, req Request) (Snapshot, error) {
	o.mu.Lock()
	if o.state.IsTerminal() {
		o.state = d.CheckoutStateIdle
	}
	if o.state != d.CheckoutStateIdle {
		o.mu.Unlock()
		return o.Snapshot(), ErrCheckoutInProgress
	}
	o.lastErr = nil
	o.orderID = ""
	o.hold = nil
	o.req = req
	if err := o.transition(d.CheckoutStateValidating); err != nil {
		o.mu.Unlock()
		return o.Snapshot(), err
	}
	o.mu.Unlock()

	lines, err := o.cart.Lines(ctx)
	if err != nil {
		return o.failToIdle(fmt.Errorf("failed to load cart: %w", err))
	}
	if len(lines) == 0 {
		return o.failToIdle(ErrEmptyCart)
	}
	if req.Address.ID == "" {
		return o.failToIdle(ErrNoAddress)
	}

	if req.PaymentMethod == d.PaymentMethodCashOnDelivery {
		return o.placeCashOnDelivery(ctx, lines)
	}
	return o.startOnlinePayment(ctx, lines)
}

func (o *Orchestrator) startOnlinePayment(ctx context.Context, lines []d.CartLine) (Snapshot, error) {
	balance := o.coins.Balance(ctx)

	o.mu.Lock()
	if err := o.transition(d.CheckoutStateCreatingIntent); err != nil {
		o.mu.Unlock()
		return o.Snapshot(), err
	}
	o.lines = lines
	o.pricing = pricing.Compute(lines, o.req.Coins, balance)
	amountMinor := pricing.MinorUnits(o.pricing.FinalAmount)
	o.mu.Unlock()

	if amountMinor < pricing.MinPayableMinorUnits {
		return o.failToIdle(ErrAmountBelowMinimum)
	}

	if err := o.gateway.EnsureLoaded(ctx); err != nil {
		return o.failToIdle(fmt.Errorf("payment gateway unavailable: %w", err))
	}

	intent, err := o.backend.CreateIntent(ctx, amountMinor, o.req.Address.Email, o.req.Address.Phone)
	if err != nil {
		return o.failToIdle(fmt.Errorf("failed to create payment intent: %w", err))
	}

	o.mu.Lock()
	o.intent = intent
	if err := o.transition(d.CheckoutStateAwaitingGateway); err != nil {
		o.mu.Unlock()
		return o.Snapshot(), err
	}
	o.mu.Unlock()

	if err := o.openGateway(intent); err != nil {
		return o.failToIdle(fmt.Errorf("failed to open payment widget: %w", err))
	}
	return o.Snapshot(), nil
}

func (o *Orchestrator) openGateway(intent backend.Intent) error {
	return o.gateway.Open(gateway.Intent{
		AmountMinorUnits: intent.Amount,
		Currency:         intent.Currency,
		GatewayOrderID:   intent.ID,
		KeyID:            intent.KeyID,
		PrefillEmail:     o.req.Address.Email,
		PrefillPhone:     o.req.Address.Phone,
	}, gateway.Callbacks{
		OnSuccess:            o.settleGatewayPayment,
		OnVerificationNeeded: o.settleGatewayPayment,
		OnDismiss:            o.handleGatewayDismiss,
	})
}

func (o *Orchestrator) placeCashOnDelivery(ctx context.Context, lines []d.CartLine) (Snapshot, error) {
	balance := o.coins.Balance(ctx)

	o.mu.Lock()
	o.lines = lines
	o.pricing = pricing.Compute(lines, o.req.Coins, balance)
	if err := o.transition(d.CheckoutStatePlacingOrder); err != nil {
		o.mu.Unlock()
		return o.Snapshot(), err
	}
	req := o.orderRequestLocked("")
	o.mu.Unlock()

	order, err := o.backend.CreateOrder(ctx, req)
	if err != nil {
		return o.failToIdle(fmt.Errorf("failed to place order: %w", err))
	}
	return o.finishOrder(order.ID), nil
}

// orderRequestLocked builds the order-create payload from the captured cart
// and pricing. Caller holds the mutex.
func (o *Orchestrator) orderRequestLocked(paymentID string) backend.OrderRequest {
	return backend.OrderRequest{
		Items:         backend.OrderItemsFromLines(o.lines),
		Subtotal:      o.pricing.Subtotal,
		TaxAmount:     o.pricing.Tax,
		TotalAmount:   o.pricing.TotalBeforeCoins,
		CoinsUsed:     o.pricing.CoinsApplied,
		FinalAmount:   o.pricing.FinalAmount,
		PaymentMethod: o.req.PaymentMethod,
		AddressID:     o.req.Address.ID,
		PaymentID:     paymentID,
	}
}

// finishOrder records the order id, clears the cart and lands in DONE.
func (o *Orchestrator) finishOrder(orderID string) Snapshot {
	if err := o.cart.Clear(o.ctx); err != nil {
		log.Printf("checkout: failed to clear cart after order %s: %v", orderID, err)
	}

	o.mu.Lock()
	o.orderID = orderID
	o.hold = nil
	if err := o.transition(d.CheckoutStateDone); err != nil {
		log.Printf("checkout: %v", err)
	}
	snap := o.snapshotLocked()
	o.mu.Unlock()
	return snap
}

// failToIdle funnels an error on the pre-gateway path: record it, return to
// IDLE so the same action can be retried.
func (o *Orchestrator) failToIdle(err error) (Snapshot, error) {
	o.mu.Lock()
	o.lastErr = err
	o.state = d.CheckoutStateIdle
	snap := o.snapshotLocked()
	o.mu.Unlock()
	return snap, err
}

// Snapshot returns the current state for the UI.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.snapshotLocked()
}

// snapshotLocked builds a snapshot; caller holds the mutex.
func (o *Orchestrator) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:   o.state,
		OrderID: o.orderID,
		Pricing: o.pricing,
	}
	if o.state == d.CheckoutStateAwaitingGateway {
		intent := o.intent
		snap.Intent = &intent
	}
	if o.hold != nil {
		hold := *o.hold
		snap.Hold = &hold
	}
	if o.lastErr != nil {
		snap.LastError = o.lastErr.Error()
	}
	return snap
}

// Close tears the orchestrator down: the countdown timer is cleared so no
// stale expiry fires after the user navigates away, and background work is
// cancelled. Navigation alone never cancels the pending order on the
// backend.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	o.stopCountdownLocked()
	o.mu.Unlock()
	o.cancel()
}
