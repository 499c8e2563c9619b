package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/farmeazy/farmgate/internal/cart"
	d "github.com/farmeazy/farmgate/internal/domain"
	"github.com/farmeazy/farmgate/internal/pricing"
	"github.com/go-chi/chi/v5"
)

// CoinBalance reads the loyalty balance for the cart summary.
type CoinBalance interface {
	Balance(ctx context.Context) int
}

type CartHandler struct {
	svc     *cart.Service
	coins   CoinBalance
	timeout time.Duration
}

func NewCartHandler(svc *cart.Service, coins CoinBalance, timeout time.Duration) *CartHandler {
	return &CartHandler{svc: svc, coins: coins, timeout: timeout}
}

type AddLineRequestDTO struct {
	ProductID           string  `json:"product_id"`
	ProductName         string  `json:"product_name"`
	UnitPrice           float64 `json:"unit_price"`
	DiscountedUnitPrice float64 `json:"discounted_unit_price,omitempty"`
	Quantity            int     `json:"quantity"`
	AvailableQuantity   int     `json:"available_quantity"`
	SellerID            string  `json:"seller_id"`
	Category            string  `json:"category"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartResponseDTO struct {
	Lines   []d.CartLine   `json:"lines"`
	Pricing d.OrderPricing `json:"pricing"`
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lines, err := h.svc.Lines(ctx)
	if err != nil {
		mapError(w, err)
		return
	}
	sel, err := h.svc.CoinSelection(ctx)
	if err != nil {
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CartResponseDTO{
		Lines:   lines,
		Pricing: pricing.Compute(lines, sel, h.coins.Balance(ctx)),
	})
}

func (h *CartHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddLineRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	err := h.svc.Add(ctx, d.CartLine{
		ProductID:           req.ProductID,
		ProductName:         req.ProductName,
		UnitPrice:           req.UnitPrice,
		DiscountedUnitPrice: req.DiscountedUnitPrice,
		Quantity:            req.Quantity,
		AvailableQuantity:   req.AvailableQuantity,
		SellerID:            req.SellerID,
		Category:            req.Category,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	h.respondCart(w, ctx, http.StatusCreated)
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Quantity <= 0 || req.Quantity > 99 {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	if err := h.svc.UpdateQuantity(ctx, productID, req.Quantity); err != nil {
		mapError(w, err)
		return
	}
	h.respondCart(w, ctx, http.StatusOK)
}

func (h *CartHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}

	if err := h.svc.Remove(ctx, productID); err != nil {
		mapError(w, err)
		return
	}
	h.respondCart(w, ctx, http.StatusOK)
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.svc.Clear(ctx); err != nil {
		mapError(w, err)
		return
	}
	h.respondCart(w, ctx, http.StatusOK)
}

func (h *CartHandler) SetCoinSelection(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var sel d.CoinSelection
	if err := json.NewDecoder(r.Body).Decode(&sel); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if err := h.svc.SetCoinSelection(ctx, sel); err != nil {
		mapError(w, err)
		return
	}
	h.respondCart(w, ctx, http.StatusOK)
}

func (h *CartHandler) respondCart(w http.ResponseWriter, ctx context.Context, status int) {
	lines, err := h.svc.Lines(ctx)
	if err != nil {
		mapError(w, err)
		return
	}
	sel, err := h.svc.CoinSelection(ctx)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, status, CartResponseDTO{
		Lines:   lines,
		Pricing: pricing.Compute(lines, sel, h.coins.Balance(ctx)),
	})
}
