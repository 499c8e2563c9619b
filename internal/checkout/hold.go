package checkout

import (
	"context"
	"fmt"
	"log"
	"time"

	d "github.com/farmeazy/farmgate/internal/domain"
)

// createPendingHold persists the failed attempt as a pending order and
// starts the retry window. Runs on the orchestrator context: a dismissal
// that lands mid-navigation still records the attempt.
func (o *Orchestrator) createPendingHold() {
	o.mu.Lock()
	req := o.orderRequestLocked("")
	req.PaymentStatus = "FAILED"
	req.OrderStatus = "PENDING"
	o.mu.Unlock()

	order, err := o.backend.CreateOrder(o.ctx, req)
	if err != nil {
		log.Printf("checkout: failed to create pending order: %v", err)
		o.mu.Lock()
		o.lastErr = fmt.Errorf("failed to record failed payment: %w", err)
		if trErr := o.transition(d.CheckoutStateIdle); trErr != nil {
			log.Printf("checkout: %v", trErr)
		}
		o.mu.Unlock()
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if err := o.transition(d.CheckoutStateHoldCreated); err != nil {
		log.Printf("checkout: %v", err)
		return
	}
	hold := d.NewPendingOrderHold(order.ID)
	hold.RemainingSeconds = o.holdSeconds
	o.hold = hold
	if err := o.transition(d.CheckoutStateHoldActive); err != nil {
		log.Printf("checkout: %v", err)
		return
	}
	o.startCountdownLocked()
}

// startCountdownLocked owns the single countdown timer. Caller holds the
// mutex; any previous timer is stopped first so at most one ticks at a time.
func (o *Orchestrator) startCountdownLocked() {
	o.stopCountdownLocked()
	stop := make(chan struct{})
	o.holdStop = stop
	go o.countdown(stop)
}

func (o *Orchestrator) stopCountdownLocked() {
	if o.holdStop != nil {
		close(o.holdStop)
		o.holdStop = nil
	}
}

func (o *Orchestrator) countdown(stop chan struct{}) {
	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if o.tickHold() {
				return
			}
		case <-stop:
			return
		case <-o.ctx.Done():
			return
		}
	}
}

// tickHold decrements the hold by one second. Returns true when the
// countdown is finished or superseded. The hold must still be ACTIVE when
// it expires: a retry or cancel that won the race makes this tick a no-op.
func (o *Orchestrator) tickHold() bool {
	o.mu.Lock()
	if o.hold == nil || o.hold.Status != d.HoldStatusActive {
		o.mu.Unlock()
		return true
	}

	o.hold.RemainingSeconds--
	if o.hold.RemainingSeconds > 0 {
		o.mu.Unlock()
		return false
	}

	o.hold.RemainingSeconds = 0
	o.hold.Status = d.HoldStatusExpired
	if err := o.transition(d.CheckoutStateCancelling); err != nil {
		log.Printf("checkout: %v", err)
		o.mu.Unlock()
		return true
	}
	orderID := o.hold.OrderID
	o.mu.Unlock()

	// Expiry fires the backend cancel exactly once.
	go o.cancelPendingOrder(o.ctx, orderID)
	return true
}

// cancelRetrySeconds re-arms the hold after a failed expiry cancel. The
// hold goes back to ACTIVE so retry and cancel stay available to the user,
// and the countdown re-attempts the backend cancel when it runs out again.
const cancelRetrySeconds = 30

func (o *Orchestrator) cancelPendingOrder(ctx context.Context, orderID string) {
	if err := o.backend.CancelOrder(ctx, orderID); err != nil {
		log.Printf("checkout: failed to cancel pending order %s: %v", orderID, err)
		o.mu.Lock()
		o.lastErr = fmt.Errorf("failed to cancel pending order: %w", err)
		if trErr := o.transition(d.CheckoutStateHoldActive); trErr != nil {
			log.Printf("checkout: %v", trErr)
			o.mu.Unlock()
			return
		}
		if o.hold != nil {
			o.hold.Status = d.HoldStatusActive
			o.hold.RemainingSeconds = cancelRetrySeconds
			o.startCountdownLocked()
		}
		o.mu.Unlock()
		return
	}

	o.mu.Lock()
	if err := o.transition(d.CheckoutStateCancelled); err != nil {
		log.Printf("checkout: %v", err)
	}
	o.mu.Unlock()
}

// Retry re-opens the payment widget for the held pending order. No new hold
// is created; the same pending order is being settled. The countdown stops
// first, so an expiry can never race the retry's outcome.
func (o *Orchestrator) Retry(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	if o.state != d.CheckoutStateHoldActive || o.hold == nil {
		o.mu.Unlock()
		return o.Snapshot(), ErrNoActiveHold
	}
	o.stopCountdownLocked()
	o.hold.Status = d.HoldStatusRetried
	if err := o.transition(d.CheckoutStateAwaitingGateway); err != nil {
		o.mu.Unlock()
		return o.Snapshot(), err
	}
	intent := o.intent
	o.mu.Unlock()

	if err := o.gateway.EnsureLoaded(ctx); err != nil {
		o.mu.Lock()
		o.resumeAfterFailedRetryLocked()
		o.mu.Unlock()
		return o.Snapshot(), fmt.Errorf("payment gateway unavailable: %w", err)
	}

	if err := o.openGateway(intent); err != nil {
		o.mu.Lock()
		o.resumeAfterFailedRetryLocked()
		o.mu.Unlock()
		return o.Snapshot(), fmt.Errorf("failed to open payment widget: %w", err)
	}
	return o.Snapshot(), nil
}

// resumeAfterFailedRetryLocked walks the hold back to ACTIVE when the retry
// never managed to open a widget. Caller holds the mutex.
func (o *Orchestrator) resumeAfterFailedRetryLocked() {
	for _, s := range []d.CheckoutState{d.CheckoutStateGatewayFailed, d.CheckoutStateHoldCreated, d.CheckoutStateHoldActive} {
		if err := o.transition(s); err != nil {
			log.Printf("checkout: %v", err)
			return
		}
	}
	if o.hold != nil {
		o.hold.Status = d.HoldStatusActive
		o.startCountdownLocked()
	}
}

// resumeHoldLocked resumes an existing retried hold after the retry's
// gateway attempt failed or was dismissed, preserving the remaining
// seconds. Returns false when there is no hold to resume (first failure:
// a new pending order is needed). Caller holds the mutex; state is
// GATEWAY_FAILED on entry.
func (o *Orchestrator) resumeHoldLocked() bool {
	if o.hold == nil || o.hold.Status != d.HoldStatusRetried {
		return false
	}
	for _, s := range []d.CheckoutState{d.CheckoutStateHoldCreated, d.CheckoutStateHoldActive} {
		if err := o.transition(s); err != nil {
			log.Printf("checkout: %v", err)
			return true
		}
	}
	o.hold.Status = d.HoldStatusActive
	o.startCountdownLocked()
	return true
}

// Cancel is the user abandoning the held order: immediate backend cancel,
// no countdown wait. On a backend failure the hold stays active and keeps
// counting down rather than pretending the cancel happened.
func (o *Orchestrator) Cancel(ctx context.Context) (Snapshot, error) {
	o.mu.Lock()
	if o.state != d.CheckoutStateHoldActive || o.hold == nil {
		o.mu.Unlock()
		return o.Snapshot(), ErrNoActiveHold
	}
	o.stopCountdownLocked()
	o.hold.Status = d.HoldStatusCancelledByUser
	if err := o.transition(d.CheckoutStateCancelling); err != nil {
		o.mu.Unlock()
		return o.Snapshot(), err
	}
	orderID := o.hold.OrderID
	o.mu.Unlock()

	if err := o.backend.CancelOrder(ctx, orderID); err != nil {
		o.mu.Lock()
		o.lastErr = fmt.Errorf("failed to cancel pending order: %w", err)
		if trErr := o.transition(d.CheckoutStateHoldActive); trErr != nil {
			log.Printf("checkout: %v", trErr)
		}
		if o.hold != nil {
			o.hold.Status = d.HoldStatusActive
			o.startCountdownLocked()
		}
		o.mu.Unlock()
		return o.Snapshot(), fmt.Errorf("failed to cancel pending order: %w", err)
	}

	o.mu.Lock()
	if err := o.transition(d.CheckoutStateCancelled); err != nil {
		log.Printf("checkout: %v", err)
	}
	o.mu.Unlock()
	return o.Snapshot(), nil
}
