package domain

import "time"

// HoldDurationSeconds is the fixed retry window for a payment-failed order.
const HoldDurationSeconds = 600

type HoldStatus string

const (
	HoldStatusActive          HoldStatus = "ACTIVE"
	HoldStatusRetried         HoldStatus = "RETRIED"
	HoldStatusExpired         HoldStatus = "EXPIRED"
	HoldStatusCancelledByUser HoldStatus = "CANCELLED_BY_USER"
)

// PendingOrderHold represents a payment-failed order kept on a temporary
// hold. While ACTIVE the user may retry payment; when the countdown reaches
// zero the backend is instructed to cancel the pending order.
type PendingOrderHold struct {
	OrderID          string     `json:"order_id"`
	CreatedAt        time.Time  `json:"created_at"`
	RemainingSeconds int        `json:"remaining_seconds"`
	Status           HoldStatus `json:"status"`
}

func NewPendingOrderHold(orderID string) *PendingOrderHold {
	return &PendingOrderHold{
		OrderID:          orderID,
		CreatedAt:        time.Now(),
		RemainingSeconds: HoldDurationSeconds,
		Status:           HoldStatusActive,
	}
}
