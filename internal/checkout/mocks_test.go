package checkout

import (
	"context"
	"sync"

	"github.com/farmeazy/farmgate/internal/backend"
	d "github.com/farmeazy/farmgate/internal/domain"
	"github.com/farmeazy/farmgate/internal/gateway"
)

// MockCart implements Cart for testing
type MockCart struct {
	mu      sync.Mutex
	lines   []d.CartLine
	cleared int
	loadErr error
}

func (m *MockCart) Lines(_ context.Context) ([]d.CartLine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.lines, nil
}

func (m *MockCart) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = nil
	m.cleared++
	return nil
}

func (m *MockCart) ClearCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cleared
}

// MockBackend implements Backend for testing
type MockBackend struct {
	mu sync.Mutex

	Intent    backend.Intent
	IntentErr error

	VerifyOK  bool
	VerifyErr error

	Order     backend.Order
	OrderErr  error
	CancelErr error

	IntentCalls  int
	VerifyCalls  int
	OrderReqs    []backend.OrderRequest
	CancelOrders []string
}

func (m *MockBackend) CreateIntent(_ context.Context, amount int64, _, _ string) (backend.Intent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IntentCalls++
	if m.IntentErr != nil {
		return backend.Intent{}, m.IntentErr
	}
	intent := m.Intent
	intent.Amount = amount
	return intent, nil
}

func (m *MockBackend) VerifyPayment(_ context.Context, _ backend.VerifyRequest) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.VerifyCalls++
	return m.VerifyOK, m.VerifyErr
}

func (m *MockBackend) CreateOrder(_ context.Context, req backend.OrderRequest) (backend.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderReqs = append(m.OrderReqs, req)
	if m.OrderErr != nil {
		return backend.Order{}, m.OrderErr
	}
	return m.Order, nil
}

func (m *MockBackend) CancelOrder(_ context.Context, orderID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CancelErr != nil {
		return m.CancelErr
	}
	m.CancelOrders = append(m.CancelOrders, orderID)
	return nil
}

func (m *MockBackend) SetCancelErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelErr = err
}

func (m *MockBackend) OrderRequests() []backend.OrderRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]backend.OrderRequest, len(m.OrderReqs))
	copy(out, m.OrderReqs)
	return out
}

func (m *MockBackend) CancelledOrders() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.CancelOrders))
	copy(out, m.CancelOrders)
	return out
}

// MockGateway implements Gateway for testing; it captures the callbacks so
// tests can fire the widget outcome.
type MockGateway struct {
	mu        sync.Mutex
	LoadErr   error
	OpenErr   error
	OpenCalls int
	intent    gateway.Intent
	cb        *gateway.Callbacks
}

func (m *MockGateway) EnsureLoaded(_ context.Context) error {
	return m.LoadErr
}

func (m *MockGateway) Open(intent gateway.Intent, cb gateway.Callbacks) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.OpenErr != nil {
		return m.OpenErr
	}
	m.OpenCalls++
	m.intent = intent
	m.cb = &cb
	return nil
}

func (m *MockGateway) LastIntent() gateway.Intent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.intent
}

func (m *MockGateway) FireSuccess(paymentID, signature string) {
	m.take().OnSuccess(paymentID, signature)
}

func (m *MockGateway) FireDismiss() {
	m.take().OnDismiss()
}

func (m *MockGateway) take() gateway.Callbacks {
	m.mu.Lock()
	defer m.mu.Unlock()
	cb := *m.cb
	m.cb = nil
	return cb
}

// MockCoins implements CoinBalance for testing
type MockCoins struct {
	Coins int
}

func (m *MockCoins) Balance(_ context.Context) int {
	return m.Coins
}
