package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/search"
	"github.com/xenking/storefront/internal/domain/user"
)

// --- Stubs ---

type stubProducts struct {
	items     []product.Product
	deleteErr error
	deleted   []int64
}

func (s *stubProducts) List(_ context.Context, f product.ListFilter) ([]product.Product, error) {
	var out []product.Product
	for _, p := range s.items {
		if f.Featured && !p.Featured || f.New && !p.New {
			continue
		}
		if f.Category.Valid() && p.Category != f.Category {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *stubProducts) GetByID(_ context.Context, id int64) (*product.Product, error) {
	for _, p := range s.items {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (s *stubProducts) GetBySlug(_ context.Context, slug string) (*product.Product, error) {
	for _, p := range s.items {
		if p.Slug == slug {
			return &p, nil
		}
	}
	return nil, product.ErrNotFound
}

func (s *stubProducts) GetByIDs(context.Context, []int64) ([]product.Product, error) {
	return s.items, nil
}

func (s *stubProducts) Search(_ context.Context, query string, _ product.Category) ([]product.Match, error) {
	var out []product.Match
	for _, p := range s.items {
		if strings.Contains(strings.ToLower(p.Name), strings.ToLower(query)) {
			out = append(out, product.Match{Product: p, Rank: 0.5})
		}
	}
	return out, nil
}

func (s *stubProducts) ListByCategory(_ context.Context, c product.Category, excludeID int64) ([]product.Product, error) {
	var out []product.Product
	for _, p := range s.items {
		if p.Category == c && p.ID != excludeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubProducts) Upsert(context.Context, *product.Product) error { return nil }

func (s *stubProducts) Delete(_ context.Context, id int64) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	return nil
}

type stubCarts struct {
	cart    cart.Cart
	addErr  error
	added   []order.Line
	removed []int64
}

func (s *stubCarts) GetCart(_ context.Context, userID int64) (*cart.Cart, error) {
	c := s.cart
	c.UserID = userID
	c.Total = cart.Total(c.Items)
	return &c, nil
}

func (s *stubCarts) Item(_ context.Context, _, itemID int64) (*cart.Item, error) {
	for _, it := range s.cart.Items {
		if it.ID == itemID {
			return &it, nil
		}
	}
	return nil, cart.ErrItemNotFound
}

func (s *stubCarts) AddItem(_ context.Context, _, productID int64, quantity int) (*cart.Item, error) {
	if s.addErr != nil {
		return nil, s.addErr
	}
	s.added = append(s.added, order.Line{ProductID: productID, Quantity: quantity})
	return &cart.Item{ID: 99, Product: product.Product{ID: productID}, Quantity: quantity}, nil
}

func (s *stubCarts) UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*cart.Item, error) {
	it, err := s.Item(ctx, userID, itemID)
	if err != nil {
		return nil, err
	}
	it.Quantity = quantity
	return it, nil
}

func (s *stubCarts) RemoveItem(_ context.Context, _, itemID int64) error {
	s.removed = append(s.removed, itemID)
	return nil
}

type stubOrders struct {
	err  error
	last order.CreateOrderRequest
}

func (s *stubOrders) place(userID int64, shipping order.Shipping) *order.Order {
	return &order.Order{
		ID:        7,
		UserID:    &userID,
		OrderDate: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Total:     decimal.RequireFromString("4.95"),
		Shipping:  shipping,
		Items: []order.Item{{
			ID:        1,
			Product:   product.Product{ID: 1, Name: "Soda"},
			Quantity:  2,
			UnitPrice: decimal.RequireFromString("1.5"),
		}},
	}
}

func (s *stubOrders) CreateOrder(_ context.Context, req order.CreateOrderRequest) (*order.Order, error) {
	s.last = req
	if s.err != nil {
		return nil, s.err
	}
	return s.place(req.UserID, req.Shipping), nil
}

func (s *stubOrders) Checkout(_ context.Context, userID int64, shipping order.Shipping) (*order.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.place(userID, shipping), nil
}

func (s *stubOrders) List(context.Context, int64) ([]order.Order, error) { return nil, nil }

func (s *stubOrders) Get(context.Context, int64, int64) (*order.Order, error) {
	return nil, order.ErrNotFound
}

func (s *stubOrders) Cancel(context.Context, int64, int64) error { return nil }

type stubUsers struct {
	users map[string]*user.User
}

func (s *stubUsers) Create(context.Context, user.CreateRequest) (*user.User, error) {
	return nil, user.ErrEmailTaken
}

func (s *stubUsers) Get(_ context.Context, id int64) (*user.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *stubUsers) List(context.Context) ([]user.User, error) {
	var out []user.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *stubUsers) Update(context.Context, int64, user.UpdateRequest) (*user.User, error) {
	return nil, user.ErrPasswordMismatch
}

func (s *stubUsers) Delete(context.Context, int64) error { return nil }

func (s *stubUsers) Authenticate(_ context.Context, email, password string) (*user.User, error) {
	u, ok := s.users[email]
	if !ok || password != "Secret#123" {
		return nil, user.ErrInvalidCredentials
	}
	return u, nil
}

// --- Helpers ---

type testEnv struct {
	products *stubProducts
	carts    *stubCarts
	orders   *stubOrders
	issuer   *auth.Issuer
	router   http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	products := &stubProducts{items: []product.Product{
		{
			ID: 1, Name: "Soda", Slug: "soda", Category: product.CategoryFoodAndDrink,
			Price: decimal.RequireFromString("1.5"), ListPrice: decimal.RequireFromString("2"),
			Featured: true, Images: product.ImageSet{Thumbnail: "soda-100.png"},
		},
		{ID: 2, Name: "Chips", Slug: "chips", Category: product.CategoryFoodAndDrink, Price: decimal.RequireFromString("1.95"), New: true},
		{ID: 3, Name: "Jacket", Slug: "jacket", Category: product.CategoryClothing, Price: decimal.RequireFromString("89")},
	}}
	env := &testEnv{
		products: products,
		carts:    &stubCarts{cart: cart.Cart{ID: 5}},
		orders:   &stubOrders{},
		issuer:   auth.NewIssuer(auth.IssuerConfig{Secret: []byte("test-secret")}),
	}
	users := &stubUsers{users: map[string]*user.User{
		"buyer@example.com": {ID: 10, Email: "buyer@example.com", Active: true},
		"admin@example.com": {ID: 1, Email: "admin@example.com", Active: true, Staff: true, Admin: true},
	}}
	h := NewHandler(Config{ImageBaseURL: "https://cdn.example.com/"}, Deps{
		Products:      products,
		ProductWriter: products,
		Carts:         env.carts,
		Orders:        env.orders,
		Search:        search.NewService(products, search.WithShuffle(func([]product.Product) {})),
		Users:         users,
		Tokens:        env.issuer,
	})
	env.router = h.Router()
	return env
}

func (env *testEnv) token(t *testing.T, userID int64, admin bool) string {
	t.Helper()
	pair, err := env.issuer.Issue(auth.Principal{UserID: userID, Admin: admin})
	require.NoError(t, err)
	return pair.Access
}

func (env *testEnv) do(t *testing.T, method, target, token, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)

	var obj map[string]any
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &obj))
	}
	return rec, obj
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

const shippingJSON = `"first_name":"Ada","last_name":"Lovelace","address1":"1 Main St",` +
	`"city":"Springfield","region":"IL","zip":"62701","country":"US"`

// --- Tests ---

func TestProducts(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/v1/products/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	list := decodeList(t, rec)
	require.Len(t, list, 3)
	assert.Equal(t, "1.50", list[0]["price"])
	assert.Equal(t, "2.00", list[0]["list_price"])
	assert.Equal(t, "Food & Drink", list[0]["category_name"])
	assert.Equal(t, "https://cdn.example.com/soda-100.png", list[0]["thumbnail"])
	assert.Equal(t, "", list[0]["large"])

	rec, _ = env.do(t, http.MethodGet, "/v1/products/featured/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 1)

	rec, _ = env.do(t, http.MethodGet, "/v1/products/new/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chips", decodeList(t, rec)[0]["slug"])

	rec, _ = env.do(t, http.MethodGet, "/v1/products/?category=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 1)

	rec, body := env.do(t, http.MethodGet, "/v1/products/jacket/", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "89.00", body["price"])

	rec, body = env.do(t, http.MethodGet, "/v1/products/nope/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found.", body["detail"])
}

func TestDeleteProduct(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodDelete, "/v1/products/soda/", env.token(t, 10, false), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, "/v1/products/soda/", env.token(t, 1, true), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{1}, env.products.deleted)

	env.products.deleteErr = product.ErrInUse
	rec, _ = env.do(t, http.MethodDelete, "/v1/products/chips/", env.token(t, 1, true), "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouting(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/v1/unknown/", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found.", body["detail"])

	rec, body = env.do(t, http.MethodPost, "/v1/products/", "", "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method not allowed.", body["detail"])
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/v1/search/?q=chip", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeList(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "Chips", list[0]["name"])

	rec, _ = env.do(t, http.MethodGet, "/v1/search/?q=&category=2", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 1)
}

func TestRecommendations(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/v1/recommendations?id=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeList(t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "chips", list[0]["slug"])

	for _, target := range []string{
		"/v1/recommendations",
		"/v1/recommendations?id=abc",
		"/v1/recommendations?id=404",
	} {
		rec, body := env.do(t, http.MethodGet, target, "", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.NotEmpty(t, body["detail"], target)
	}

	rec, _ = env.do(t, http.MethodPost, "/v1/recommendations?id=1", "", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestCartAccess(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodGet, "/v1/users/10/cart/", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Authentication credentials were not provided.", body["detail"])
	assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))

	rec, _ = env.do(t, http.MethodGet, "/v1/users/10/cart/", "garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/v1/users/10/cart/", env.token(t, 11, false), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = env.do(t, http.MethodGet, "/v1/users/10/cart/", env.token(t, 10, false), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 10, body["user"])
	assert.Equal(t, "0.00", body["total"])

	rec, _ = env.do(t, http.MethodGet, "/v1/users/10/cart/", env.token(t, 1, true), "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCartItems(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, 10, false)

	rec, body := env.do(t, http.MethodPost, "/v1/users/10/cart/items/", tok, `{"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "product_id", body["field"])

	rec, body = env.do(t, http.MethodPost, "/v1/users/10/cart/items/", tok, `{"product_id":"3","quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 2, body["quantity"])
	assert.Equal(t, []order.Line{{ProductID: 3, Quantity: 2}}, env.carts.added)

	env.carts.addErr = cart.ErrInvalidQuantity
	rec, body = env.do(t, http.MethodPost, "/v1/users/10/cart/items/", tok, `{"product_id":3,"quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "quantity", body["field"])
	assert.Equal(t, "Quantity must be between 1 and 1000.", body["detail"])

	env.carts.addErr = cart.ErrProductNotFound
	rec, body = env.do(t, http.MethodPost, "/v1/users/10/cart/items/", tok, `{"product_id":999,"quantity":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "product_id", body["field"])

	rec, _ = env.do(t, http.MethodGet, "/v1/users/10/cart/items/42/", tok, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, "/v1/users/10/cart/items/42/", tok, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []int64{42}, env.carts.removed)

	rec, _ = env.do(t, http.MethodPost, "/v1/users/10/cart/items/", tok, `{"product_id":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateOrder(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, 10, false)

	rec, body := env.do(t, http.MethodPost, "/v1/users/10/orders/", tok,
		`{`+shippingJSON+`,"items":[{"product_id":1,"quantity":2},{"product_id":"2","quantity":1}]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "4.95", body["total"])
	assert.Equal(t, "62701", body["zip"])
	assert.Equal(t, "2024-01-02T03:04:05.000000Z", body["order_date"])
	items := body["items"].([]any)
	require.Len(t, items, 1)
	assert.Equal(t, "1.50", items[0].(map[string]any)["unit_price"])
	assert.Equal(t, "3.00", items[0].(map[string]any)["subtotal"])

	assert.Equal(t, int64(10), env.orders.last.UserID)
	assert.Equal(t, "Ada", env.orders.last.Shipping.FirstName)
	assert.Equal(t, []order.Line{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}}, env.orders.last.Items)

	rec, body = env.do(t, http.MethodPost, "/v1/users/10/orders/", tok,
		`{`+shippingJSON+`,"items":[{"quantity":1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "product_id", body["field"])
}

func TestOrderErrors(t *testing.T) {
	for _, tt := range []struct {
		name   string
		err    error
		status int
		detail string
	}{
		{"missing product", &order.ItemDoesntExistError{ProductID: 404}, http.StatusBadRequest,
			"Entered in an item id that doesn't correspond with a product: 404"},
		{"duplicate", &order.ItemAlreadyExistsError{ProductID: 1}, http.StatusBadRequest,
			"Entered in an item for a product multiple times: 1"},
		{"no items", order.ErrNoItems, http.StatusBadRequest, "Order must contain at least one item."},
		{"empty cart", order.ErrEmptyCart, http.StatusBadRequest, "Cart cannot be empty."},
		{"unknown user", errors.Wrap(order.ErrUserNotFound, "lock cart"), http.StatusNotFound, "Not found."},
		{"quantity above max", &order.InvalidQuantityError{ProductID: 3}, http.StatusBadRequest,
			"Quantity must be between 1 and 1000 for product: 3"},
		{"total overflow", errors.Wrap(order.ErrTotalOutOfRange, "recompute total"), http.StatusBadRequest,
			"Order total exceeds the allowed maximum."},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "internal error"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.orders.err = tt.err

			rec, body := env.do(t, http.MethodPost, "/v1/users/10/cart/checkout", env.token(t, 10, false), `{`+shippingJSON+`}`)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.detail, body["detail"])
		})
	}
}

func TestOrderReads(t *testing.T) {
	env := newTestEnv(t)
	tok := env.token(t, 10, false)

	rec, _ := env.do(t, http.MethodGet, "/v1/users/10/orders/", tok, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())

	rec, _ = env.do(t, http.MethodGet, "/v1/users/10/orders/3/", tok, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = env.do(t, http.MethodDelete, "/v1/users/10/orders/3/", tok, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = env.do(t, http.MethodPut, "/v1/users/10/orders/3/", tok, "{}")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t)

	rec, _ := env.do(t, http.MethodGet, "/v1/users/", env.token(t, 10, false), "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/v1/users/", env.token(t, 1, true), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeList(t, rec), 2)

	rec, body := env.do(t, http.MethodGet, "/v1/users/1/", env.token(t, 10, false), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["is_superuser"])
	assert.NotContains(t, body, "password")

	rec, body = env.do(t, http.MethodPost, "/v1/users/", "", `{"email":"buyer@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email", body["field"])

	rec, _ = env.do(t, http.MethodPatch, "/v1/users/1/", env.token(t, 10, false), `{"first_name":"X"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, body = env.do(t, http.MethodPut, "/v1/users/10/", env.token(t, 10, false), `{"password":"wrong"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Passwords do not match.", body["detail"])

	rec, _ = env.do(t, http.MethodDelete, "/v1/users/10/", env.token(t, 1, true), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestTokens(t *testing.T) {
	env := newTestEnv(t)

	rec, body := env.do(t, http.MethodPost, "/v1/token/", "", `{"email":"buyer@example.com","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No active account found with the given credentials", body["detail"])

	rec, body = env.do(t, http.MethodPost, "/v1/token/", "", `{"email":"buyer@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "password", body["field"])

	rec, body = env.do(t, http.MethodPost, "/v1/token/", "", `{"email":"buyer@example.com","password":"Secret#123"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	access, refresh := body["access"].(string), body["refresh"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	rec, _ = env.do(t, http.MethodGet, "/v1/users/10/cart/", access, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = env.do(t, http.MethodGet, "/v1/users/10/cart/", refresh, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = env.do(t, http.MethodPost, "/v1/refresh/", "", `{"refresh":"`+access+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, body = env.do(t, http.MethodPost, "/v1/refresh/", "", `{"refresh":"`+refresh+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["access"])
	assert.NotContains(t, body, "refresh")
}
