package order

import (
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/validate"
)

// CreateOrderRequest holds the input for placing an order from an explicit
// item list.
type CreateOrderRequest struct {
	UserID   int64
	Shipping Shipping
	Items    []Line
}

// Service encapsulates order placement business logic.
type Service struct {
	store Store
}

// NewService creates an order Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// CreateOrder validates the item list against the catalog and persists the
// order with its items and recomputed total in one transaction.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	if err := validateInput(req.Shipping, req.Items); err != nil {
		return nil, err
	}

	var created *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		if _, err := tx.LockCart(ctx, req.UserID); err != nil {
			return errors.Wrap(err, "lock cart")
		}
		o, err := place(ctx, tx, req.UserID, req.Shipping, req.Items)
		if err != nil {
			return err
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Checkout moves the whole cart of userID into a new order and empties the
// cart. An empty cart is reported before shipping is validated. The cart is
// left untouched when placing the order fails.
func (s *Service) Checkout(ctx context.Context, userID int64, shipping Shipping) (*Order, error) {
	var created *Order
	err := s.store.InTx(ctx, func(tx Tx) error {
		cartID, err := tx.LockCart(ctx, userID)
		if err != nil {
			return errors.Wrap(err, "lock cart")
		}
		lines, err := tx.CartLines(ctx, cartID)
		if err != nil {
			return errors.Wrap(err, "read cart")
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}
		if err := validateInput(shipping, lines); err != nil {
			return err
		}
		o, err := place(ctx, tx, userID, shipping, lines)
		if err != nil {
			return err
		}
		if err := tx.ClearCart(ctx, cartID); err != nil {
			return errors.Wrap(err, "clear cart")
		}
		created = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// List returns the orders of userID, newest first.
func (s *Service) List(ctx context.Context, userID int64) ([]Order, error) {
	orders, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	return orders, nil
}

// Get returns a single order of userID.
func (s *Service) Get(ctx context.Context, userID, orderID int64) (*Order, error) {
	o, err := s.store.Get(ctx, userID, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "get order")
	}
	return o, nil
}

// Cancel deletes an order of userID together with its items.
func (s *Service) Cancel(ctx context.Context, userID, orderID int64) error {
	if err := s.store.Delete(ctx, userID, orderID); err != nil {
		return errors.Wrap(err, "delete order")
	}
	return nil
}

func validateInput(shipping Shipping, lines []Line) error {
	if err := validate.Struct(shipping); err != nil {
		return err
	}
	for _, l := range lines {
		if l.Quantity < 1 || l.Quantity > product.MaxQuantity {
			return &InvalidQuantityError{ProductID: l.ProductID}
		}
	}
	return nil
}

// place runs the write steps of an order inside tx: resolve every line,
// reject duplicates, insert the order and its items with price snapshots,
// then store the total recomputed from the persisted items.
func place(ctx context.Context, tx Tx, userID int64, shipping Shipping, lines []Line) (*Order, error) {
	ids := make([]int64, len(lines))
	for i, l := range lines {
		ids[i] = l.ProductID
	}

	fetched, err := tx.Products(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get products")
	}
	byID := make(map[int64]product.Product, len(fetched))
	for _, p := range fetched {
		byID[p.ID] = p
	}
	for _, l := range lines {
		if _, ok := byID[l.ProductID]; !ok {
			return nil, &ItemDoesntExistError{ProductID: l.ProductID}
		}
	}

	seen := make(map[int64]struct{}, len(lines))
	for _, l := range lines {
		if _, dup := seen[l.ProductID]; dup {
			return nil, &ItemAlreadyExistsError{ProductID: l.ProductID}
		}
		seen[l.ProductID] = struct{}{}
	}

	o := &Order{UserID: &userID, Shipping: shipping}
	if err := tx.InsertOrder(ctx, o); err != nil {
		return nil, errors.Wrap(err, "insert order")
	}

	items := make([]Item, len(lines))
	for i, l := range lines {
		p := byID[l.ProductID]
		items[i] = Item{
			OrderID:   o.ID,
			Product:   p,
			Quantity:  l.Quantity,
			UnitPrice: p.Price,
		}
	}
	if err := tx.InsertItems(ctx, o.ID, items); err != nil {
		return nil, errors.Wrap(err, "insert order items")
	}
	o.Items = items

	total, err := tx.RecomputeTotal(ctx, o.ID)
	if err != nil {
		return nil, errors.Wrap(err, "recompute total")
	}
	o.Total = total.Round(2)
	return o, nil
}
