package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Sentinel errors for cart operations.
var (
	ErrNotFound        = errors.New("cart not found")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity out of range")
)

// Item is one cart line.
type Item struct {
	ID       int64
	CartID   int64
	Product  product.Product
	Quantity int
}

// Subtotal returns quantity times the current product price.
func (i Item) Subtotal() decimal.Decimal {
	return i.Product.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Cart is the shopping cart of a single user.
type Cart struct {
	ID     int64
	UserID int64
	Items  []Item
	Total  decimal.Decimal
}

// Total sums line subtotals at current prices, rounded to cents. An empty
// slice yields zero.
func Total(items []Item) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total.Round(2)
}

// Repository defines persistence for carts. Every method is scoped by the
// owning user; ErrNotFound is returned when the user has no cart.
type Repository interface {
	Get(ctx context.Context, userID int64) (*Cart, error)
	Item(ctx context.Context, userID, itemID int64) (*Item, error)
	// AddItem inserts a line or adds quantity to the existing line for the product.
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*Item, error)
	SetQuantity(ctx context.Context, userID, itemID int64, quantity int) (*Item, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
	Clear(ctx context.Context, userID int64) error
}
