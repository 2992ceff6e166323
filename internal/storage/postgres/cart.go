package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/cart"
)

const cartItemColumns = `ci.id, ci.cart_id, ci.quantity, ` + productColumns

const (
	getCartIDSQL = `SELECT id FROM carts WHERE user_id = $1`

	listCartItemsSQL = `SELECT ` + cartItemColumns + `
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.id`

	getCartItemSQL = `SELECT ` + cartItemColumns + `
		FROM cart_items ci
		JOIN carts c ON c.id = ci.cart_id
		JOIN products p ON p.id = ci.product_id
		WHERE c.user_id = $1 AND ci.id = $2`

	addCartItemSQL = `INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id`

	setCartItemQuantitySQL = `UPDATE cart_items ci SET quantity = $3
		FROM carts c
		WHERE c.id = ci.cart_id AND c.user_id = $1 AND ci.id = $2`

	deleteCartItemSQL = `DELETE FROM cart_items ci
		USING carts c
		WHERE c.id = ci.cart_id AND c.user_id = $1 AND ci.id = $2`

	clearCartSQL = `DELETE FROM cart_items WHERE cart_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) cartID(ctx context.Context, userID int64) (int64, error) {
	var id int64
	if err := r.pool.QueryRow(ctx, getCartIDSQL, userID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, cart.ErrNotFound
		}
		return 0, fmt.Errorf("getting cart of user %d: %w", userID, err)
	}
	return id, nil
}

// Get returns the cart of userID with its items. Total is left to the caller.
func (r *CartRepository) Get(ctx context.Context, userID int64) (*cart.Cart, error) {
	id, err := r.cartID(ctx, userID)
	if err != nil {
		return nil, err
	}
	rows, err := r.pool.Query(ctx, listCartItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanCartItem)
	if err != nil {
		return nil, fmt.Errorf("listing cart items: %w", err)
	}
	return &cart.Cart{ID: id, UserID: userID, Items: items}, nil
}

// Item returns one line of the cart of userID.
func (r *CartRepository) Item(ctx context.Context, userID, itemID int64) (*cart.Item, error) {
	rows, err := r.pool.Query(ctx, getCartItemSQL, userID, itemID)
	if err != nil {
		return nil, fmt.Errorf("getting cart item %d: %w", itemID, err)
	}
	it, err := pgx.CollectExactlyOneRow(rows, scanCartItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			if _, cerr := r.cartID(ctx, userID); cerr != nil {
				return nil, cerr
			}
			return nil, cart.ErrItemNotFound
		}
		return nil, fmt.Errorf("getting cart item %d: %w", itemID, err)
	}
	return &it, nil
}

// AddItem inserts a line or increments the existing line for productID.
func (r *CartRepository) AddItem(ctx context.Context, userID, productID int64, quantity int) (*cart.Item, error) {
	cartID, err := r.cartID(ctx, userID)
	if err != nil {
		return nil, err
	}
	var itemID int64
	if err := r.pool.QueryRow(ctx, addCartItemSQL, cartID, productID, quantity).Scan(&itemID); err != nil {
		switch {
		case isForeignKeyViolation(err):
			return nil, cart.ErrProductNotFound
		case isCheckViolation(err), isOutOfRange(err):
			return nil, cart.ErrInvalidQuantity
		}
		return nil, fmt.Errorf("adding product %d to cart %d: %w", productID, cartID, err)
	}
	return r.Item(ctx, userID, itemID)
}

// SetQuantity replaces the quantity of one line.
func (r *CartRepository) SetQuantity(ctx context.Context, userID, itemID int64, quantity int) (*cart.Item, error) {
	tag, err := r.pool.Exec(ctx, setCartItemQuantitySQL, userID, itemID, quantity)
	if err != nil {
		if isCheckViolation(err) || isOutOfRange(err) {
			return nil, cart.ErrInvalidQuantity
		}
		return nil, fmt.Errorf("updating cart item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil, r.missing(ctx, userID)
	}
	return r.Item(ctx, userID, itemID)
}

// RemoveItem deletes one line.
func (r *CartRepository) RemoveItem(ctx context.Context, userID, itemID int64) error {
	tag, err := r.pool.Exec(ctx, deleteCartItemSQL, userID, itemID)
	if err != nil {
		return fmt.Errorf("deleting cart item %d: %w", itemID, err)
	}
	if tag.RowsAffected() == 0 {
		return r.missing(ctx, userID)
	}
	return nil
}

// Clear deletes every line of the cart of userID.
func (r *CartRepository) Clear(ctx context.Context, userID int64) error {
	id, err := r.cartID(ctx, userID)
	if err != nil {
		return err
	}
	if _, err := r.pool.Exec(ctx, clearCartSQL, id); err != nil {
		return fmt.Errorf("clearing cart %d: %w", id, err)
	}
	return nil
}

// missing distinguishes an unknown cart from an unknown item.
func (r *CartRepository) missing(ctx context.Context, userID int64) error {
	if _, err := r.cartID(ctx, userID); err != nil {
		return err
	}
	return cart.ErrItemNotFound
}

func scanCartItem(row pgx.CollectableRow) (cart.Item, error) {
	var it cart.Item
	dest := append([]any{&it.ID, &it.CartID, &it.Quantity}, productDest(&it.Product)...)
	err := row.Scan(dest...)
	return it, err
}
