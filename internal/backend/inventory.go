package backend

import (
	"context"
	"fmt"
	"net/http"
)

type releaseRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// Release returns quantity units of a product to available stock, called
// when a cart line is removed or its quantity reduced. Best-effort from the
// client's point of view; the backend remains the source of truth.
func (c *Client) Release(ctx context.Context, productID string, quantity int) error {
	path := fmt.Sprintf("/products/%s/release-quantity", productID)
	return c.do(ctx, http.MethodPost, path, releaseRequest{ProductID: productID, Quantity: quantity}, nil)
}
