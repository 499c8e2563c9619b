package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Outcome is what the UI reports back after the hosted widget closes.
type Outcome string

const (
	OutcomeSuccess            Outcome = "success"
	OutcomeVerificationNeeded Outcome = "verification_needed"
	OutcomeDismissed          Outcome = "dismissed"
)

var (
	ErrNoOpenWidget = errors.New("no payment widget awaiting an outcome")
)

// Relay is the production driver. The agent cannot present a browser popup
// itself: Load probes that the hosted checkout script is reachable, Open
// parks the callbacks, and the UI reports the widget outcome through
// Deliver. Exactly one callback fires per Open.
type Relay struct {
	scriptURL string
	http      *http.Client

	mu      sync.Mutex
	pending *Callbacks
}

func NewRelay(scriptURL string) *Relay {
	return &Relay{
		scriptURL: scriptURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Relay) Load(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.scriptURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build script request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return fmt.Errorf("checkout script unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checkout script unreachable: status %d", resp.StatusCode)
	}
	return nil
}

func (r *Relay) Open(_ Intent, cb Callbacks) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = &cb
	return nil
}

// Deliver routes the UI-reported outcome into the parked callbacks and
// clears them so a duplicate report cannot fire twice.
func (r *Relay) Deliver(outcome Outcome, paymentID, signature string) error {
	r.mu.Lock()
	cb := r.pending
	r.pending = nil
	r.mu.Unlock()

	if cb == nil {
		return ErrNoOpenWidget
	}

	switch outcome {
	case OutcomeSuccess:
		cb.OnSuccess(paymentID, signature)
	case OutcomeVerificationNeeded:
		cb.OnVerificationNeeded(paymentID, signature)
	case OutcomeDismissed:
		cb.OnDismiss()
	default:
		// Put the callbacks back: an unknown outcome must not eat the widget.
		r.mu.Lock()
		r.pending = cb
		r.mu.Unlock()
		return fmt.Errorf("unknown gateway outcome %q", outcome)
	}
	return nil
}
