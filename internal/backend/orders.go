package backend

import (
	"context"
	"fmt"
	"net/http"

	d "github.com/farmeazy/farmgate/internal/domain"
)

type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
	SellerID  string  `json:"sellerId"`
}

type OrderRequest struct {
	Items         []OrderItem     `json:"items"`
	Subtotal      float64         `json:"subtotal"`
	TaxAmount     float64         `json:"taxAmount"`
	TotalAmount   float64         `json:"totalAmount"`
	CoinsUsed     int             `json:"coinsUsed"`
	FinalAmount   float64         `json:"finalAmount"`
	PaymentMethod d.PaymentMethod `json:"paymentMethod"`
	AddressID     string          `json:"addressId"`
	PaymentID     string          `json:"paymentId,omitempty"`
	PaymentStatus string          `json:"paymentStatus,omitempty"`
	OrderStatus   string          `json:"orderStatus,omitempty"`
}

type Order struct {
	ID            string  `json:"id"`
	OrderStatus   string  `json:"orderStatus"`
	PaymentStatus string  `json:"paymentStatus"`
	FinalAmount   float64 `json:"finalAmount"`
}

// OrderItemsFromLines maps cart lines to the order-create payload, pricing
// each item at its effective (discounted when valid) price.
func OrderItemsFromLines(lines []d.CartLine) []OrderItem {
	items := make([]OrderItem, len(lines))
	for i, line := range lines {
		items[i] = OrderItem{
			ProductID: line.ProductID,
			Name:      line.ProductName,
			Quantity:  line.Quantity,
			UnitPrice: line.EffectivePrice(),
			SellerID:  line.SellerID,
		}
	}
	return items
}

// CreateOrder persists an order: the final paid order on the happy path, or
// a pending order with a failed payment status on the hold path.
func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (Order, error) {
	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", req, &order); err != nil {
		return Order{}, err
	}
	return order, nil
}

// CancelOrder cancels a pending/held order.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	path := fmt.Sprintf("/orders/%s/cancel", orderID)
	return c.do(ctx, http.MethodPatch, path, nil, nil)
}
