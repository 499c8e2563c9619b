package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/farmeazy/farmgate/internal/backend"
	"github.com/farmeazy/farmgate/internal/cart"
	"github.com/farmeazy/farmgate/internal/checkout"
	"github.com/farmeazy/farmgate/internal/gateway"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// mapError converts core errors to HTTP status codes.
func mapError(w http.ResponseWriter, err error) {
	switch {
	case checkout.IsValidation(err):
		respondError(w, http.StatusBadRequest, "validation_failed", err.Error())
	case errors.Is(err, cart.ErrInvalidLine) || errors.Is(err, cart.ErrInvalidQuantity):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, cart.ErrLineNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, checkout.ErrCheckoutInProgress) ||
		errors.Is(err, checkout.ErrNoActiveHold) ||
		errors.Is(err, gateway.ErrNoOpenWidget) ||
		errors.Is(err, gateway.ErrWidgetOpen):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	default:
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			respondError(w, http.StatusBadGateway, "backend_error", apiErr.Message)
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
