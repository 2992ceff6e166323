package cart

import (
	"context"
	"math"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/product"
)

// --- Mock implementations ---

type mockProductRepo struct {
	byID   map[int64]product.Product
	getErr error
}

func (m *mockProductRepo) List(context.Context, product.ListFilter) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) GetByID(_ context.Context, id int64) (*product.Product, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.byID[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return &p, nil
}

func (m *mockProductRepo) GetBySlug(context.Context, string) (*product.Product, error) {
	return nil, product.ErrNotFound
}

func (m *mockProductRepo) GetByIDs(context.Context, []int64) ([]product.Product, error) {
	return nil, nil
}

func (m *mockProductRepo) Search(context.Context, string, product.Category) ([]product.Match, error) {
	return nil, nil
}

func (m *mockProductRepo) ListByCategory(context.Context, product.Category, int64) ([]product.Product, error) {
	return nil, nil
}

// memCarts keeps a single cart for user 1.
type memCarts struct {
	products *mockProductRepo
	items    []Item
	nextID   int64
}

func (m *memCarts) Get(_ context.Context, userID int64) (*Cart, error) {
	if userID != 1 {
		return nil, ErrNotFound
	}
	return &Cart{ID: 10, UserID: userID, Items: append([]Item(nil), m.items...)}, nil
}

func (m *memCarts) find(userID, itemID int64) (int, error) {
	if userID != 1 {
		return 0, ErrNotFound
	}
	for i, it := range m.items {
		if it.ID == itemID {
			return i, nil
		}
	}
	return 0, ErrItemNotFound
}

func (m *memCarts) Item(_ context.Context, userID, itemID int64) (*Item, error) {
	i, err := m.find(userID, itemID)
	if err != nil {
		return nil, err
	}
	it := m.items[i]
	return &it, nil
}

func (m *memCarts) AddItem(_ context.Context, userID, productID int64, quantity int) (*Item, error) {
	if userID != 1 {
		return nil, ErrNotFound
	}
	for i := range m.items {
		if m.items[i].Product.ID == productID {
			m.items[i].Quantity += quantity
			it := m.items[i]
			return &it, nil
		}
	}
	m.nextID++
	it := Item{ID: m.nextID, CartID: 10, Product: m.products.byID[productID], Quantity: quantity}
	m.items = append(m.items, it)
	return &it, nil
}

func (m *memCarts) SetQuantity(_ context.Context, userID, itemID int64, quantity int) (*Item, error) {
	i, err := m.find(userID, itemID)
	if err != nil {
		return nil, err
	}
	m.items[i].Quantity = quantity
	it := m.items[i]
	return &it, nil
}

func (m *memCarts) RemoveItem(_ context.Context, userID, itemID int64) error {
	i, err := m.find(userID, itemID)
	if err != nil {
		return err
	}
	m.items = append(m.items[:i], m.items[i+1:]...)
	return nil
}

func (m *memCarts) Clear(_ context.Context, userID int64) error {
	if userID != 1 {
		return ErrNotFound
	}
	m.items = nil
	return nil
}

// --- Helpers ---

func newTestService() (*Service, *memCarts) {
	products := &mockProductRepo{byID: map[int64]product.Product{
		1: {ID: 1, Name: "Soda", Price: decimal.RequireFromString("1.50"), Category: product.CategoryFoodAndDrink},
		2: {ID: 2, Name: "Chips", Price: decimal.RequireFromString("0.99"), Category: product.CategoryFoodAndDrink},
	}}
	carts := &memCarts{products: products}
	return NewService(products, carts), carts
}

// --- Tests ---

func TestTotal(t *testing.T) {
	soda := product.Product{Price: decimal.RequireFromString("1.50")}
	chips := product.Product{Price: decimal.RequireFromString("0.99")}

	assert.True(t, decimal.Zero.Equal(Total(nil)))
	assert.True(t, decimal.RequireFromString("4.98").Equal(Total([]Item{
		{Product: soda, Quantity: 2},
		{Product: chips, Quantity: 2},
	})))
}

func TestGetCart_Empty(t *testing.T) {
	svc, _ := newTestService()

	c, err := svc.GetCart(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, decimal.Zero.Equal(c.Total))
}

func TestGetCart_UnknownUser(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetCart(context.Background(), 99)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestAddItem(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, 1, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, 1, 2, 1)
	require.NoError(t, err)

	c, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	assert.True(t, decimal.RequireFromString("3.99").Equal(c.Total))
}

func TestAddItem_SameProductIncrements(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, 1, 2)
	require.NoError(t, err)
	it, err := svc.AddItem(ctx, 1, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 5, it.Quantity)

	c, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	assert.True(t, decimal.RequireFromString("7.50").Equal(c.Total))
}

func TestAddItem_InvalidQuantity(t *testing.T) {
	svc, carts := newTestService()

	for _, q := range []int{0, -1, product.MaxQuantity + 1, math.MaxInt} {
		_, err := svc.AddItem(context.Background(), 1, 1, q)
		require.ErrorIs(t, err, ErrInvalidQuantity)
	}
	assert.Empty(t, carts.items)
}

func TestAddItem_ProductNotFound(t *testing.T) {
	svc, carts := newTestService()

	_, err := svc.AddItem(context.Background(), 1, 42, 1)
	require.ErrorIs(t, err, ErrProductNotFound)
	assert.Empty(t, carts.items)
}

func TestAddItem_ProductLookupFailure(t *testing.T) {
	svc, carts := newTestService()
	carts.products.getErr = errors.New("connection reset")

	_, err := svc.AddItem(context.Background(), 1, 1, 1)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrProductNotFound)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	it, err := svc.AddItem(ctx, 1, 2, 1)
	require.NoError(t, err)

	_, err = svc.UpdateItem(ctx, 1, it.ID, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.UpdateItem(ctx, 1, it.ID, product.MaxQuantity+1)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	updated, err := svc.UpdateItem(ctx, 1, it.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Quantity)

	_, err = svc.UpdateItem(ctx, 1, 999, 1)
	require.ErrorIs(t, err, ErrItemNotFound)

	require.NoError(t, svc.RemoveItem(ctx, 1, it.ID))
	require.ErrorIs(t, svc.RemoveItem(ctx, 1, it.ID), ErrItemNotFound)

	_, err = svc.Item(ctx, 1, it.ID)
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestClear(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	_, err := svc.AddItem(ctx, 1, 1, 1)
	require.NoError(t, err)
	require.NoError(t, svc.Clear(ctx, 1))

	c, err := svc.GetCart(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, c.Items)
	assert.True(t, decimal.Zero.Equal(c.Total))
}
