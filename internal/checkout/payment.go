package checkout

import (
	"log"

	"github.com/farmeazy/farmgate/internal/backend"
	d "github.com/farmeazy/farmgate/internal/domain"
)

// settleGatewayPayment handles both gateway outcomes that carry a payment
// id. The raw callback is never trusted: the payment is real only once the
// backend verification endpoint says so. Runs on the orchestrator's own
// context since the gateway callback may land after the UI request is gone.
func (o *Orchestrator) settleGatewayPayment(paymentID, signature string) {
	o.mu.Lock()
	if err := o.transition(d.CheckoutStateVerifying); err != nil {
		log.Printf("checkout: dropping gateway callback: %v", err)
		o.mu.Unlock()
		return
	}
	intentID := o.intent.ID
	email, phone := o.req.Address.Email, o.req.Address.Phone
	o.mu.Unlock()

	ok, err := o.backend.VerifyPayment(o.ctx, backend.VerifyRequest{
		OrderID:   intentID,
		PaymentID: paymentID,
		Signature: signature,
		Email:     email,
		Phone:     phone,
	})
	if err != nil {
		// Verification unreachable: the payment cannot be trusted, so this
		// routes into the hold path like a reported failure.
		log.Printf("checkout: payment verification failed for %s: %v", paymentID, err)
		ok = false
	}

	if !ok {
		o.enterFailedBranch()
		return
	}

	o.placePaidOrder(paymentID)
}

func (o *Orchestrator) placePaidOrder(paymentID string) {
	o.mu.Lock()
	if err := o.transition(d.CheckoutStatePlacingOrder); err != nil {
		log.Printf("checkout: %v", err)
		o.mu.Unlock()
		return
	}
	req := o.orderRequestLocked(paymentID)
	o.mu.Unlock()

	order, err := o.backend.CreateOrder(o.ctx, req)
	if err != nil {
		// Money has moved. Surface this distinctly and do not retry.
		postErr := &PostPaymentError{PaymentID: paymentID, Err: err}
		log.Printf("checkout: %v", postErr)

		o.mu.Lock()
		o.lastErr = postErr
		if trErr := o.transition(d.CheckoutStateIdle); trErr != nil {
			log.Printf("checkout: %v", trErr)
		}
		o.mu.Unlock()
		return
	}

	o.finishOrder(order.ID)
}

// enterFailedBranch moves a verified failure (or verification outage) into
// the hold path.
func (o *Orchestrator) enterFailedBranch() {
	o.mu.Lock()
	if err := o.transition(d.CheckoutStateGatewayFailed); err != nil {
		log.Printf("checkout: %v", err)
		o.mu.Unlock()
		return
	}
	resumed := o.resumeHoldLocked()
	o.mu.Unlock()

	if !resumed {
		o.createPendingHold()
	}
}

// handleGatewayDismiss is the user closing the widget without paying.
// Treated identically to a verified failure for hold purposes: persist a
// pending order and start the retry window. A dismissal during a retry
// resumes the existing hold instead of creating a second pending order.
func (o *Orchestrator) handleGatewayDismiss() {
	o.enterFailedBranch()
}
