package order

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/product"
)

// Sentinel errors for order placement and lookup.
var (
	ErrNoItems      = errors.New("order has no items")
	ErrEmptyCart    = errors.New("cart is empty")
	ErrNotFound     = errors.New("order not found")
	ErrUserNotFound = errors.New("user not found")

	// ErrTotalOutOfRange is returned when the order total does not fit the
	// stored precision.
	ErrTotalOutOfRange = errors.New("order total out of range")
)

// ItemDoesntExistError indicates a requested product id does not resolve.
type ItemDoesntExistError struct {
	ProductID int64
}

func (e *ItemDoesntExistError) Error() string {
	return fmt.Sprintf("item %d doesn't correspond with a product", e.ProductID)
}

// ItemAlreadyExistsError indicates a product id was requested more than once.
type ItemAlreadyExistsError struct {
	ProductID int64
}

func (e *ItemAlreadyExistsError) Error() string {
	return fmt.Sprintf("item %d entered multiple times", e.ProductID)
}

// InvalidQuantityError indicates a line item quantity outside
// [1, product.MaxQuantity].
type InvalidQuantityError struct {
	ProductID int64
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be between 1 and %d for product %d", product.MaxQuantity, e.ProductID)
}
