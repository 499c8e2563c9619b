package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farmeazy/farmgate/internal/backend"
	"github.com/farmeazy/farmgate/internal/cart"
	"github.com/farmeazy/farmgate/internal/cartstore"
	"github.com/farmeazy/farmgate/internal/checkout"
	d "github.com/farmeazy/farmgate/internal/domain"
	"github.com/farmeazy/farmgate/internal/gateway"
)

// newTestCheckoutHandler wires the whole agent stack against a fake
// marketplace backend and a fake checkout script host.
func newTestCheckoutHandler(t *testing.T) (*CheckoutHandler, *cart.Service) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /addresses", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]backend.Address{
			{ID: "addr-1", Name: "Ravi", Line1: "12 Farm Road", City: "Pune", Pincode: "411001", Email: "ravi@example.com", Phone: "9999999999"},
		})
	})
	mux.HandleFunc("GET /coins", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int{"totalCoins": 25})
	})
	mux.HandleFunc("POST /orders", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(backend.Order{ID: "ord-1", OrderStatus: "CONFIRMED"})
	})
	backendSrv := httptest.NewServer(mux)
	t.Cleanup(backendSrv.Close)

	scriptSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(scriptSrv.Close)

	client := backend.NewClient(backend.Config{BaseURL: backendSrv.URL, Token: "test-token"})
	store, err := cartstore.NewFileStore(t.TempDir(), cartstore.NewBus())
	require.NoError(t, err)
	svc := cart.NewService(store, client)

	relay := gateway.NewRelay(scriptSrv.URL)
	orch := checkout.NewOrchestrator(svc, client, gateway.NewAdapter(relay), backend.NewLedger(client), checkout.Config{})
	t.Cleanup(orch.Close)

	return NewCheckoutHandler(orch, client, relay, 5*time.Second), svc
}

func startCheckout(t *testing.T, h *CheckoutHandler, body StartCheckoutRequestDTO) *httptest.ResponseRecorder {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.Start(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout", bytes.NewReader(buf)))
	return rec
}

func TestCheckoutHandler_RejectsUnknownPaymentMethod(t *testing.T) {
	h, _ := newTestCheckoutHandler(t)

	rec := startCheckout(t, h, StartCheckoutRequestDTO{PaymentMethod: "BARTER", AddressID: "addr-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandler_RejectsMissingAddress(t *testing.T) {
	h, svc := newTestCheckoutHandler(t)
	require.NoError(t, svc.Add(context.Background(), d.CartLine{
		ProductID: "prod-1", ProductName: "Tomatoes", UnitPrice: 50, Quantity: 2, AvailableQuantity: 10,
	}))

	rec := startCheckout(t, h, StartCheckoutRequestDTO{PaymentMethod: "CASH_ON_DELIVERY", AddressID: ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = startCheckout(t, h, StartCheckoutRequestDTO{PaymentMethod: "CASH_ON_DELIVERY", AddressID: "addr-unknown"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandler_RejectsEmptyCart(t *testing.T) {
	h, _ := newTestCheckoutHandler(t)

	rec := startCheckout(t, h, StartCheckoutRequestDTO{PaymentMethod: "CASH_ON_DELIVERY", AddressID: "addr-1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutHandler_CashOnDeliveryCompletes(t *testing.T) {
	h, svc := newTestCheckoutHandler(t)
	require.NoError(t, svc.Add(context.Background(), d.CartLine{
		ProductID: "prod-1", ProductName: "Tomatoes", UnitPrice: 50, Quantity: 2, AvailableQuantity: 10,
	}))

	rec := startCheckout(t, h, StartCheckoutRequestDTO{PaymentMethod: "CASH_ON_DELIVERY", AddressID: "addr-1"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	var snap checkout.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, d.CheckoutStateDone, snap.State)
	assert.Equal(t, "ord-1", snap.OrderID)

	lines, err := svc.Lines(context.Background())
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestCheckoutHandler_StatusReflectsIdle(t *testing.T) {
	h, _ := newTestCheckoutHandler(t)

	rec := httptest.NewRecorder()
	h.Status(rec, httptest.NewRequest(http.MethodGet, "/api/v1/checkout", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var snap checkout.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, d.CheckoutStateIdle, snap.State)
}

func TestCheckoutHandler_GatewayResultWithoutOpenWidget(t *testing.T) {
	h, _ := newTestCheckoutHandler(t)

	buf, _ := json.Marshal(GatewayResultRequestDTO{Outcome: "success", PaymentID: "pay_1"})
	rec := httptest.NewRecorder()
	h.GatewayResult(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/gateway-result", bytes.NewReader(buf)))

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCheckoutHandler_RetryWithoutHold(t *testing.T) {
	h, _ := newTestCheckoutHandler(t)

	rec := httptest.NewRecorder()
	h.Retry(rec, httptest.NewRequest(http.MethodPost, "/api/v1/checkout/retry", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
}
