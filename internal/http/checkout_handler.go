package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/farmeazy/farmgate/internal/backend"
	"github.com/farmeazy/farmgate/internal/checkout"
	d "github.com/farmeazy/farmgate/internal/domain"
	"github.com/farmeazy/farmgate/internal/gateway"
)

type CheckoutHandler struct {
	orch    *checkout.Orchestrator
	backend *backend.Client
	relay   *gateway.Relay
	timeout time.Duration
}

func NewCheckoutHandler(orch *checkout.Orchestrator, be *backend.Client, relay *gateway.Relay, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{orch: orch, backend: be, relay: relay, timeout: timeout}
}

type StartCheckoutRequestDTO struct {
	PaymentMethod string          `json:"payment_method"`
	AddressID     string          `json:"address_id"`
	Coins         d.CoinSelection `json:"coins"`
}

type GatewayResultRequestDTO struct {
	Outcome   string `json:"outcome"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

func (h *CheckoutHandler) Start(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req StartCheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	method := d.PaymentMethod(req.PaymentMethod)
	if method != d.PaymentMethodRazorpay && method != d.PaymentMethodCashOnDelivery {
		respondError(w, http.StatusBadRequest, "invalid_payment_method", "payment_method must be RAZORPAY or CASH_ON_DELIVERY")
		return
	}

	addr, err := h.resolveAddress(ctx, req.AddressID)
	if err != nil {
		mapError(w, err)
		return
	}

	snap, err := h.orch.Start(ctx, checkout.Request{
		PaymentMethod: method,
		Address:       addr,
		Coins:         req.Coins,
	})
	if err != nil {
		log.Printf("[%s] checkout start failed: %v", getRequestID(r.Context()), err)
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, snap)
}

func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.orch.Snapshot())
}

func (h *CheckoutHandler) Retry(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.orch.Retry(ctx)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, snap)
}

func (h *CheckoutHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.orch.Cancel(ctx)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, snap)
}

// GatewayResult receives the widget outcome the UI observed and feeds it
// into the parked gateway callbacks.
func (h *CheckoutHandler) GatewayResult(w http.ResponseWriter, r *http.Request) {
	var req GatewayResultRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.relay.Deliver(gateway.Outcome(req.Outcome), req.PaymentID, req.Signature); err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, h.orch.Snapshot())
}

func (h *CheckoutHandler) resolveAddress(ctx context.Context, addressID string) (backend.Address, error) {
	if addressID == "" {
		return backend.Address{}, checkout.ErrNoAddress
	}
	addrs, err := h.backend.ListAddresses(ctx)
	if err != nil {
		return backend.Address{}, err
	}
	for _, a := range addrs {
		if a.ID == addressID {
			return a, nil
		}
	}
	return backend.Address{}, checkout.ErrNoAddress
}
