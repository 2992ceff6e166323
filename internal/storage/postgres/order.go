package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
)

const orderColumns = `o.id, o.user_id, o.order_date, o.total,
	o.first_name, o.last_name, o.address1, o.address2, o.city, o.region, o.zip, o.country`

const (
	lockCartSQL = `SELECT id FROM carts WHERE user_id = $1 FOR UPDATE`

	cartLinesSQL = `SELECT product_id, quantity FROM cart_items WHERE cart_id = $1 ORDER BY id`

	lockProductsSQL = `SELECT ` + productColumns + ` FROM products p WHERE p.id = ANY($1) ORDER BY p.id FOR SHARE`

	insertOrderSQL = `INSERT INTO orders (user_id, total, first_name, last_name, address1, address2, city, region, zip, country)
		VALUES ($1, 0, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, order_date, total`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	recomputeTotalSQL = `UPDATE orders SET total = (
			SELECT COALESCE(SUM(quantity * unit_price), 0) FROM order_items WHERE order_id = $1
		)
		WHERE id = $1
		RETURNING total`

	listOrdersSQL = `SELECT ` + orderColumns + ` FROM orders o
		WHERE o.user_id = $1
		ORDER BY o.order_date DESC, o.id DESC`

	getOrderSQL = `SELECT ` + orderColumns + ` FROM orders o WHERE o.user_id = $1 AND o.id = $2`

	listOrderItemsSQL = `SELECT oi.id, oi.order_id, oi.quantity, oi.unit_price, ` + productColumns + `
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`

	deleteOrderSQL = `DELETE FROM orders WHERE user_id = $1 AND id = $2`
)

var _ order.Store = (*OrderStore)(nil)

// OrderStore implements order.Store backed by PostgreSQL.
type OrderStore struct {
	pool *pgxpool.Pool
}

// NewOrderStore returns an OrderStore that uses the given pool.
func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

// InTx runs fn in a read-committed transaction. The transaction is
// committed when fn returns nil and rolled back otherwise.
func (s *OrderStore) InTx(ctx context.Context, fn func(tx order.Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&orderTx{tx: tx})
	})
}

// List returns the orders of userID with their items, newest first.
func (s *OrderStore) List(ctx context.Context, userID int64) ([]order.Order, error) {
	rows, err := s.pool.Query(ctx, listOrdersSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("listing orders of user %d: %w", userID, err)
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders of user %d: %w", userID, err)
	}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// Get returns one order of userID with its items.
func (s *OrderStore) Get(ctx context.Context, userID, orderID int64) (*order.Order, error) {
	rows, err := s.pool.Query(ctx, getOrderSQL, userID, orderID)
	if err != nil {
		return nil, fmt.Errorf("getting order %d: %w", orderID, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %d: %w", orderID, err)
	}
	orders := []order.Order{o}
	if err := s.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// Delete removes an order of userID. Its items are removed by cascade.
func (s *OrderStore) Delete(ctx context.Context, userID, orderID int64) error {
	tag, err := s.pool.Exec(ctx, deleteOrderSQL, userID, orderID)
	if err != nil {
		return fmt.Errorf("deleting order %d: %w", orderID, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func (s *OrderStore) attachItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := lo.Map(orders, func(o order.Order, _ int) int64 { return o.ID })
	rows, err := s.pool.Query(ctx, listOrderItemsSQL, ids)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	items, err := pgx.CollectRows(rows, scanOrderItem)
	if err != nil {
		return fmt.Errorf("listing order items: %w", err)
	}
	byOrder := lo.GroupBy(items, func(it order.Item) int64 { return it.OrderID })
	for i := range orders {
		orders[i].Items = byOrder[orders[i].ID]
	}
	return nil
}

var _ order.Tx = (*orderTx)(nil)

type orderTx struct {
	tx pgx.Tx
}

func (t *orderTx) LockCart(ctx context.Context, userID int64) (int64, error) {
	var id int64
	if err := t.tx.QueryRow(ctx, lockCartSQL, userID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, order.ErrUserNotFound
		}
		return 0, fmt.Errorf("locking cart of user %d: %w", userID, err)
	}
	return id, nil
}

func (t *orderTx) CartLines(ctx context.Context, cartID int64) ([]order.Line, error) {
	rows, err := t.tx.Query(ctx, cartLinesSQL, cartID)
	if err != nil {
		return nil, fmt.Errorf("reading cart %d: %w", cartID, err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var l order.Line
		err := row.Scan(&l.ProductID, &l.Quantity)
		return l, err
	})
}

func (t *orderTx) ClearCart(ctx context.Context, cartID int64) error {
	if _, err := t.tx.Exec(ctx, clearCartSQL, cartID); err != nil {
		return fmt.Errorf("clearing cart %d: %w", cartID, err)
	}
	return nil
}

func (t *orderTx) Products(ctx context.Context, ids []int64) ([]product.Product, error) {
	return productsByIDs(ctx, t.tx, lockProductsSQL, lo.Uniq(ids))
}

func (t *orderTx) InsertOrder(ctx context.Context, o *order.Order) error {
	s := o.Shipping
	err := t.tx.QueryRow(ctx, insertOrderSQL,
		o.UserID, s.FirstName, s.LastName, s.Address1, s.Address2, s.City, s.Region, s.Zip, s.Country,
	).Scan(&o.ID, &o.OrderDate, &o.Total)
	if err != nil {
		return fmt.Errorf("inserting order: %w", err)
	}
	return nil
}

func (t *orderTx) InsertItems(ctx context.Context, orderID int64, items []order.Item) error {
	batch := &pgx.Batch{}
	for i := range items {
		it := &items[i]
		batch.Queue(insertOrderItemSQL, orderID, it.Product.ID, it.Quantity, it.UnitPrice).
			QueryRow(func(row pgx.Row) error {
				it.OrderID = orderID
				return row.Scan(&it.ID)
			})
	}
	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("duplicate product in order %d: %w", orderID, err)
		}
		if isOutOfRange(err) {
			return order.ErrTotalOutOfRange
		}
		return fmt.Errorf("inserting items of order %d: %w", orderID, err)
	}
	return nil
}

func (t *orderTx) RecomputeTotal(ctx context.Context, orderID int64) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := t.tx.QueryRow(ctx, recomputeTotalSQL, orderID).Scan(&total); err != nil {
		if isOutOfRange(err) {
			return decimal.Zero, order.ErrTotalOutOfRange
		}
		return decimal.Zero, fmt.Errorf("recomputing total of order %d: %w", orderID, err)
	}
	return total, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o order.Order
		s = &o.Shipping
	)
	err := row.Scan(
		&o.ID, &o.UserID, &o.OrderDate, &o.Total,
		&s.FirstName, &s.LastName, &s.Address1, &s.Address2, &s.City, &s.Region, &s.Zip, &s.Country,
	)
	return o, err
}

func scanOrderItem(row pgx.CollectableRow) (order.Item, error) {
	var it order.Item
	dest := append([]any{&it.ID, &it.OrderID, &it.Quantity, &it.UnitPrice}, productDest(&it.Product)...)
	err := row.Scan(dest...)
	return it, err
}
