package gateway

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"
)

type State string

const (
	StateUnloaded  State = "UNLOADED"
	StateLoading   State = "LOADING"
	StateReady     State = "READY"
	StateOpen      State = "OPEN"
	StateSucceeded State = "SUCCEEDED"
	StateFailed    State = "FAILED"
	StateDismissed State = "DISMISSED"
)

var (
	ErrScriptLoadFailed = errors.New("payment script failed to load")
	ErrBelowMinimum     = errors.New("amount below minimum payable of 1 currency unit")
	ErrWidgetOpen       = errors.New("a payment widget is already open")
	ErrNotLoaded        = errors.New("payment script not loaded")
)

// minAmountMinorUnits is the gateway floor: 1 major currency unit.
const minAmountMinorUnits = 100

// Intent carries everything the hosted widget needs to open.
type Intent struct {
	AmountMinorUnits int64
	Currency         string
	GatewayOrderID   string
	KeyID            string
	PrefillEmail     string
	PrefillPhone     string
}

// Callbacks is the widget contract: exactly one fires per Open call. The
// gateway only reports what it saw; server-side verification is
// authoritative.
type Callbacks struct {
	OnSuccess            func(paymentID, signature string)
	OnVerificationNeeded func(paymentID, signature string)
	OnDismiss            func()
}

// Driver is the injected third-party widget binding: a script loader and a
// widget opener. Swappable for a fake in tests.
type Driver interface {
	Load(ctx context.Context) error
	Open(intent Intent, cb Callbacks) error
}

// Adapter wraps the driver in the widget lifecycle state machine and owns
// the two client-side guarantees: the script loads at most once per process,
// and at most one widget is open at a time.
type Adapter struct {
	driver Driver
	sfg    singleflight.Group

	mu     sync.Mutex
	state  State
	loaded bool
}

func NewAdapter(driver Driver) *Adapter {
	return &Adapter{driver: driver, state: StateUnloaded}
}

func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// EnsureLoaded loads the third-party script exactly once per process
// lifetime, however many callers race on it. A load failure leaves the
// adapter unloaded so a later attempt can try again.
func (a *Adapter) EnsureLoaded(ctx context.Context) error {
	a.mu.Lock()
	if a.loaded {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	_, err, _ := a.sfg.Do("load", func() (interface{}, error) {
		a.mu.Lock()
		if a.loaded {
			a.mu.Unlock()
			return nil, nil
		}
		a.state = StateLoading
		a.mu.Unlock()

		if err := a.driver.Load(ctx); err != nil {
			a.mu.Lock()
			a.state = StateUnloaded
			a.mu.Unlock()
			return nil, errors.Join(ErrScriptLoadFailed, err)
		}

		a.mu.Lock()
		a.loaded = true
		a.state = StateReady
		a.mu.Unlock()
		return nil, nil
	})
	return err
}

// Open presents the hosted widget. Enforces the payment floor before the
// widget ever sees the amount and refuses a second widget while one is open.
func (a *Adapter) Open(intent Intent, cb Callbacks) error {
	if intent.AmountMinorUnits < minAmountMinorUnits {
		return ErrBelowMinimum
	}

	a.mu.Lock()
	if !a.loaded {
		a.mu.Unlock()
		return ErrNotLoaded
	}
	if a.state == StateOpen {
		a.mu.Unlock()
		return ErrWidgetOpen
	}
	a.state = StateOpen
	a.mu.Unlock()

	wrapped := Callbacks{
		OnSuccess: func(paymentID, signature string) {
			a.settle(StateSucceeded)
			if cb.OnSuccess != nil {
				cb.OnSuccess(paymentID, signature)
			}
		},
		OnVerificationNeeded: func(paymentID, signature string) {
			a.settle(StateFailed)
			if cb.OnVerificationNeeded != nil {
				cb.OnVerificationNeeded(paymentID, signature)
			}
		},
		OnDismiss: func() {
			a.settle(StateDismissed)
			if cb.OnDismiss != nil {
				cb.OnDismiss()
			}
		},
	}

	if err := a.driver.Open(intent, wrapped); err != nil {
		a.settle(StateReady)
		return err
	}
	return nil
}

func (a *Adapter) settle(to State) {
	a.mu.Lock()
	a.state = to
	a.mu.Unlock()
}
