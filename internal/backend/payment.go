package backend

import (
	"context"
	"net/http"
)

// Intent is the backend-issued, gateway-specific handle that must exist
// before the payment widget can be opened.
type Intent struct {
	ID       string `json:"id"`
	KeyID    string `json:"key_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type createIntentRequest struct {
	Amount int64  `json:"amount"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
}

// CreateIntent requests a payment intent keyed by the final amount in minor
// currency units.
func (c *Client) CreateIntent(ctx context.Context, amountMinorUnits int64, email, phone string) (Intent, error) {
	var intent Intent
	req := createIntentRequest{Amount: amountMinorUnits, Email: email, Phone: phone}
	if err := c.do(ctx, http.MethodPost, "/payment/create-order", req, &intent); err != nil {
		return Intent{}, err
	}
	return intent, nil
}

type VerifyRequest struct {
	OrderID   string `json:"orderId"`
	PaymentID string `json:"paymentId"`
	Signature string `json:"signature"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// VerifyPayment confirms a gateway success server-side. Only a "success"
// status from here makes a payment trustworthy.
func (c *Client) VerifyPayment(ctx context.Context, req VerifyRequest) (bool, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.do(ctx, http.MethodPost, "/payment/verify", req, &resp); err != nil {
		return false, err
	}
	return resp.Status == "success", nil
}
