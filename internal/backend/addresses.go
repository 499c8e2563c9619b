package backend

import (
	"context"
	"net/http"
)

type Address struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Line1   string `json:"line1"`
	Line2   string `json:"line2,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
}

func (c *Client) ListAddresses(ctx context.Context) ([]Address, error) {
	var addresses []Address
	if err := c.do(ctx, http.MethodGet, "/addresses", nil, &addresses); err != nil {
		return nil, err
	}
	return addresses, nil
}

func (c *Client) CreateAddress(ctx context.Context, addr Address) (Address, error) {
	var created Address
	if err := c.do(ctx, http.MethodPost, "/addresses", addr, &created); err != nil {
		return Address{}, err
	}
	return created, nil
}
