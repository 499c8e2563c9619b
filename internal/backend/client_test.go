package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	d "github.com/farmeazy/farmgate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{BaseURL: srv.URL, Token: "test-token"})
}

func TestFetchCoins(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/coins", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		json.NewEncoder(w).Encode(map[string]int{"totalCoins": 120})
	}))

	coins, err := client.FetchCoins(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, coins)
}

func TestLedger_BalanceZeroOnError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))

	ledger := NewLedger(client)
	assert.Equal(t, 0, ledger.Balance(context.Background()))
}

func TestLedger_CollapsesConcurrentFetches(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		json.NewEncoder(w).Encode(map[string]int{"totalCoins": 7})
	}))

	ledger := NewLedger(client)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, 7, ledger.Balance(context.Background()))
		}()
	}
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateIntent(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/payment/create-order", r.URL.Path)

		var req createIntentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, int64(21240), req.Amount)
		assert.Equal(t, "a@b.c", req.Email)

		json.NewEncoder(w).Encode(Intent{ID: "order_x1", KeyID: "rzp_test", Amount: req.Amount, Currency: "INR"})
	}))

	intent, err := client.CreateIntent(context.Background(), 21240, "a@b.c", "999")
	require.NoError(t, err)
	assert.Equal(t, "order_x1", intent.ID)
	assert.Equal(t, "INR", intent.Currency)
}

func TestVerifyPayment(t *testing.T) {
	status := "success"
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/payment/verify", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"status": status})
	}))

	ok, err := client.VerifyPayment(context.Background(), VerifyRequest{OrderID: "o", PaymentID: "p", Signature: "s"})
	require.NoError(t, err)
	assert.True(t, ok)

	status = "failed"
	ok, err = client.VerifyPayment(context.Background(), VerifyRequest{OrderID: "o", PaymentID: "p", Signature: "s"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCreateOrder_BackendError(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"out of stock"}`, http.StatusConflict)
	}))

	_, err := client.CreateOrder(context.Background(), OrderRequest{})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "out of stock")
}

func TestCancelOrder(t *testing.T) {
	var gotPath string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPatch, r.Method)
		json.NewEncoder(w).Encode(Order{ID: "ord-1", OrderStatus: "CANCELLED"})
	}))

	require.NoError(t, client.CancelOrder(context.Background(), "ord-1"))
	assert.Equal(t, "/orders/ord-1/cancel", gotPath)
}

func TestRelease(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/prod-7/release-quantity", r.URL.Path)

		var req releaseRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 3, req.Quantity)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.Release(context.Background(), "prod-7", 3))
}

func TestOrderItemsFromLines(t *testing.T) {
	lines := []d.CartLine{
		{ProductID: "a", ProductName: "Mangoes", UnitPrice: 100, DiscountedUnitPrice: 90, Quantity: 2, SellerID: "s1"},
		{ProductID: "b", ProductName: "Drip Kit", UnitPrice: 40, Quantity: 1, SellerID: "s2"},
	}
	items := OrderItemsFromLines(lines)
	require.Len(t, items, 2)
	assert.Equal(t, 90.0, items[0].UnitPrice)
	assert.Equal(t, 40.0, items[1].UnitPrice)
}
