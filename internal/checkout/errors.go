package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyCart           = errors.New("cart is empty, nothing to checkout")
	ErrNoAddress           = errors.New("no delivery address selected")
	ErrAmountBelowMinimum  = errors.New("order total is below the minimum payable amount")
	ErrCheckoutInProgress  = errors.New("a checkout is already in progress")
	ErrNoActiveHold        = errors.New("no active payment hold to act on")
	IllegalTransitionError = errors.New("illegal transition of checkout state")
)

// IsValidation reports whether err is a local precondition failure: the
// backend was never called and nothing changed.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyCart) ||
		errors.Is(err, ErrNoAddress) ||
		errors.Is(err, ErrAmountBelowMinimum)
}

// PostPaymentError is the severe case: the payment was verified but the
// order could not be persisted. Money has moved, so this is surfaced
// distinctly and never retried automatically.
type PostPaymentError struct {
	PaymentID string
	Err       error
}

func (e *PostPaymentError) Error() string {
	return fmt.Sprintf("payment %s succeeded but order creation failed, contact support: %v", e.PaymentID, e.Err)
}

func (e *PostPaymentError) Unwrap() error {
	return e.Err
}
