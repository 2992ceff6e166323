package cart

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
)

// Service encapsulates cart business rules.
type Service struct {
	products product.Repository
	carts    Repository
}

// NewService creates a cart Service.
func NewService(products product.Repository, carts Repository) *Service {
	return &Service{
		products: products,
		carts:    carts,
	}
}

// GetCart returns the cart of userID with its computed total.
func (s *Service) GetCart(ctx context.Context, userID int64) (*Cart, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	c.Total = Total(c.Items)
	return c, nil
}

// Item returns a single line of the user's cart.
func (s *Service) Item(ctx context.Context, userID, itemID int64) (*Item, error) {
	it, err := s.carts.Item(ctx, userID, itemID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart item")
	}
	return it, nil
}

// AddItem puts quantity units of productID into the user's cart. When the
// product is already there the quantities are summed.
func (s *Service) AddItem(ctx context.Context, userID, productID int64, quantity int) (*Item, error) {
	if quantity < 1 || quantity > product.MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, errors.Wrapf(err, "get product %d", productID)
	}
	it, err := s.carts.AddItem(ctx, userID, productID, quantity)
	if err != nil {
		return nil, errors.Wrap(err, "add cart item")
	}
	return it, nil
}

// UpdateItem replaces the quantity of an existing line.
func (s *Service) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*Item, error) {
	if quantity < 1 || quantity > product.MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	it, err := s.carts.SetQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return nil, errors.Wrap(err, "update cart item")
	}
	return it, nil
}

// RemoveItem deletes one line from the user's cart.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) error {
	if err := s.carts.RemoveItem(ctx, userID, itemID); err != nil {
		return errors.Wrap(err, "remove cart item")
	}
	return nil
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	if err := s.carts.Clear(ctx, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}
