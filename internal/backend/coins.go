package backend

import (
	"context"
	"log"
	"net/http"

	"golang.org/x/sync/singleflight"
)

// FetchCoins returns the user's loyalty-coin balance.
func (c *Client) FetchCoins(ctx context.Context) (int, error) {
	var resp struct {
		TotalCoins int `json:"totalCoins"`
	}
	if err := c.do(ctx, http.MethodGet, "/coins", nil, &resp); err != nil {
		return 0, err
	}
	return resp.TotalCoins, nil
}

// Ledger is the read side of the loyalty-coin balance. A fetch error never
// blocks checkout; the balance reads as zero.
type Ledger struct {
	client *Client
	sfg    singleflight.Group // collapses concurrent balance fetches
}

func NewLedger(client *Client) *Ledger {
	return &Ledger{client: client}
}

func (l *Ledger) Balance(ctx context.Context) int {
	v, err, _ := l.sfg.Do("coins", func() (interface{}, error) {
		return l.client.FetchCoins(ctx)
	})
	if err != nil {
		log.Printf("coin ledger: balance fetch failed, treating as 0: %v", err)
		return 0
	}
	return v.(int)
}
