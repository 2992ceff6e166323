package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/product"
)

// Shipping holds the delivery address of an order.
type Shipping struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Address1  string `json:"address1" validate:"required,max=100"`
	Address2  string `json:"address2" validate:"max=100"`
	City      string `json:"city" validate:"required,max=50"`
	Region    string `json:"region" validate:"required,max=50"`
	Zip       string `json:"zip" validate:"required,zip5"`
	Country   string `json:"country" validate:"required,max=50"`
}

// Order is a placed order. Orders are written once and only ever deleted.
type Order struct {
	ID int64
	// UserID is nil once the owning account has been deleted.
	UserID    *int64
	OrderDate time.Time
	Total     decimal.Decimal
	Shipping  Shipping
	Items     []Item
}

// Item is an order line with the unit price captured at order time.
type Item struct {
	ID        int64
	OrderID   int64
	Product   product.Product
	Quantity  int
	UnitPrice decimal.Decimal
}

// Subtotal returns quantity times the snapshotted unit price.
func (i Item) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Line is a requested product and quantity.
type Line struct {
	ProductID int64
	Quantity  int
}

// Store defines order persistence. Writes go through InTx so that every
// step of a checkout commits or rolls back together.
type Store interface {
	InTx(ctx context.Context, fn func(tx Tx) error) error
	List(ctx context.Context, userID int64) ([]Order, error)
	Get(ctx context.Context, userID, orderID int64) (*Order, error)
	Delete(ctx context.Context, userID, orderID int64) error
}

// Tx is the transaction-scoped view of the store.
type Tx interface {
	// LockCart locks the cart row of userID for the rest of the transaction
	// and returns its id. Returns ErrUserNotFound when the user has no cart.
	LockCart(ctx context.Context, userID int64) (int64, error)
	CartLines(ctx context.Context, cartID int64) ([]Line, error)
	ClearCart(ctx context.Context, cartID int64) error
	// Products returns the products among ids, share-locked until commit.
	Products(ctx context.Context, ids []int64) ([]product.Product, error)
	// InsertOrder creates the order row with a zero total and fills in ID
	// and OrderDate.
	InsertOrder(ctx context.Context, o *Order) error
	// InsertItems persists the lines of orderID and fills in their IDs.
	InsertItems(ctx context.Context, orderID int64, items []Item) error
	// RecomputeTotal stores SUM(quantity * unit_price) of the persisted
	// items on the order and returns it.
	RecomputeTotal(ctx context.Context, orderID int64) (decimal.Decimal, error)
}
