package cartstore

import (
	"context"

	d "github.com/farmeazy/farmgate/internal/domain"
)

// Store is the persisted cart: durable, process-wide state shared by the
// cart screen, the checkout screen and the header badge. There is no
// partial-update API; every mutation is load, modify, save the full list.
type Store interface {
	Load(ctx context.Context) ([]d.CartLine, error)
	Save(ctx context.Context, lines []d.CartLine) error
	Clear(ctx context.Context) error

	// Coin-selection handoff from the cart screen to the checkout screen.
	SaveCoinSelection(ctx context.Context, sel d.CoinSelection) error
	LoadCoinSelection(ctx context.Context) (d.CoinSelection, error)
}
