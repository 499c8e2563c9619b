package cart

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/farmeazy/farmgate/internal/cartstore"
	d "github.com/farmeazy/farmgate/internal/domain"
)

var (
	ErrLineNotFound    = errors.New("line not found in cart")
	ErrInvalidLine     = errors.New("cart line is invalid")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Releaser returns previously reserved stock to the backend when a line is
// removed or its quantity reduced.
type Releaser interface {
	Release(ctx context.Context, productID string, quantity int) error
}

// Service owns all cart mutations. Every operation reads the full persisted
// list, modifies it in memory and writes it back; the store is the only
// owner of cart state.
type Service struct {
	store     cartstore.Store
	inventory Releaser
}

func NewService(store cartstore.Store, inventory Releaser) *Service {
	return &Service{store: store, inventory: inventory}
}

func (s *Service) Lines(ctx context.Context) ([]d.CartLine, error) {
	return s.store.Load(ctx)
}

// Add puts a product in the cart, merging with an existing line for the same
// product. Quantity is clamped to the last known available stock, never
// silently exceeded.
func (s *Service) Add(ctx context.Context, line d.CartLine) error {
	if line.ProductID == "" || line.UnitPrice <= 0 {
		return ErrInvalidLine
	}
	if line.Quantity < 1 {
		return ErrInvalidQuantity
	}

	lines, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	merged := false
	for i := range lines {
		if lines[i].ProductID == line.ProductID {
			lines[i].Quantity += line.Quantity
			lines[i].AvailableQuantity = line.AvailableQuantity
			lines[i].ClampQuantity()
			merged = true
			break
		}
	}
	if !merged {
		line.ClampQuantity()
		lines = append(lines, line)
	}

	return s.store.Save(ctx, lines)
}

// UpdateQuantity sets a line's quantity, clamped to available stock. A
// reduction releases the freed quantity back to the backend; an increase
// performs no reservation call and relies on order-time validation.
func (s *Service) UpdateQuantity(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}

	lines, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	for i := range lines {
		if lines[i].ProductID != productID {
			continue
		}

		previous := lines[i].Quantity
		lines[i].Quantity = quantity
		lines[i].ClampQuantity()

		if freed := previous - lines[i].Quantity; freed > 0 {
			s.release(ctx, productID, freed)
		}
		return s.store.Save(ctx, lines)
	}
	return ErrLineNotFound
}

// Remove drops a line from the cart and releases its full quantity. The
// local removal proceeds whether or not the release call succeeds; the
// backend stays the source of truth for stock.
func (s *Service) Remove(ctx context.Context, productID string) error {
	lines, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cart: %w", err)
	}

	for i := range lines {
		if lines[i].ProductID != productID {
			continue
		}

		s.release(ctx, productID, lines[i].Quantity)
		lines = append(lines[:i], lines[i+1:]...)
		return s.store.Save(ctx, lines)
	}
	return ErrLineNotFound
}

// Clear empties the persisted cart. Used after a successful order, so no
// stock is released.
func (s *Service) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}

func (s *Service) SetCoinSelection(ctx context.Context, sel d.CoinSelection) error {
	if sel.CoinsToUse < 0 {
		sel.CoinsToUse = 0
	}
	return s.store.SaveCoinSelection(ctx, sel)
}

func (s *Service) CoinSelection(ctx context.Context) (d.CoinSelection, error) {
	return s.store.LoadCoinSelection(ctx)
}

func (s *Service) release(ctx context.Context, productID string, quantity int) {
	if err := s.inventory.Release(ctx, productID, quantity); err != nil {
		log.Printf("inventory release for %s (qty %d) failed, proceeding locally: %v", productID, quantity, err)
	}
}
