package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/farmeazy/farmgate/internal/backend"
)

// AccountHandler passes address and coin reads through to the marketplace
// backend so the UI only ever talks to the local agent.
type AccountHandler struct {
	backend *backend.Client
	timeout time.Duration
}

func NewAccountHandler(be *backend.Client, timeout time.Duration) *AccountHandler {
	return &AccountHandler{backend: be, timeout: timeout}
}

type CoinsResponseDTO struct {
	TotalCoins int `json:"total_coins"`
}

func (h *AccountHandler) GetCoins(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	coins, err := h.backend.FetchCoins(ctx)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, CoinsResponseDTO{TotalCoins: coins})
}

func (h *AccountHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	addrs, err := h.backend.ListAddresses(ctx)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, addrs)
}

func (h *AccountHandler) CreateAddress(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var addr backend.Address
	if err := json.NewDecoder(r.Body).Decode(&addr); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if addr.Name == "" || addr.Line1 == "" || addr.Pincode == "" {
		respondError(w, http.StatusBadRequest, "invalid_address", "name, line1 and pincode are required")
		return
	}

	created, err := h.backend.CreateAddress(ctx, addr)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, created)
}
