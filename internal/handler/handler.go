package handler

import (
	"context"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/search"
	"github.com/xenking/storefront/internal/domain/user"
)

// CartService manages the cart of a user.
type CartService interface {
	GetCart(ctx context.Context, userID int64) (*cart.Cart, error)
	Item(ctx context.Context, userID, itemID int64) (*cart.Item, error)
	AddItem(ctx context.Context, userID, productID int64, quantity int) (*cart.Item, error)
	UpdateItem(ctx context.Context, userID, itemID int64, quantity int) (*cart.Item, error)
	RemoveItem(ctx context.Context, userID, itemID int64) error
}

// OrderService places and reads orders.
type OrderService interface {
	CreateOrder(ctx context.Context, req order.CreateOrderRequest) (*order.Order, error)
	Checkout(ctx context.Context, userID int64, shipping order.Shipping) (*order.Order, error)
	List(ctx context.Context, userID int64) ([]order.Order, error)
	Get(ctx context.Context, userID, orderID int64) (*order.Order, error)
	Cancel(ctx context.Context, userID, orderID int64) error
}

// SearchService ranks catalog products.
type SearchService interface {
	Search(ctx context.Context, query, rawCategory string) ([]product.Product, error)
	Recommendations(ctx context.Context, id int64) ([]product.Product, error)
}

// UserService manages accounts and credentials.
type UserService interface {
	Create(ctx context.Context, req user.CreateRequest) (*user.User, error)
	Get(ctx context.Context, id int64) (*user.User, error)
	List(ctx context.Context) ([]user.User, error)
	Update(ctx context.Context, id int64, req user.UpdateRequest) (*user.User, error)
	Delete(ctx context.Context, id int64) error
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
}

// TokenIssuer issues and verifies bearer tokens.
type TokenIssuer interface {
	Issue(p auth.Principal) (auth.Pair, error)
	Verify(token string) (auth.Principal, error)
	Refresh(refresh string) (string, error)
}

var (
	_ CartService   = (*cart.Service)(nil)
	_ OrderService  = (*order.Service)(nil)
	_ SearchService = (*search.Service)(nil)
	_ UserService   = (*user.Service)(nil)
	_ TokenIssuer   = (*auth.Issuer)(nil)
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// ImageBaseURL is prepended to image object keys in product responses.
	// When empty, keys are returned as stored in the database.
	ImageBaseURL string
}

// Deps are the domain collaborators of the Handler.
type Deps struct {
	Products      product.Repository
	ProductWriter product.Writer
	Carts         CartService
	Orders        OrderService
	Search        SearchService
	Users         UserService
	Tokens        TokenIssuer
	// Metrics is optional.
	Metrics *Metrics
}

// Handler serves the JSON API.
type Handler struct {
	products      product.Repository
	productWriter product.Writer
	carts         CartService
	orders        OrderService
	search        SearchService
	users         UserService
	tokens        TokenIssuer
	metrics       *Metrics
	imageBaseURL  string
}

// NewHandler constructs a Handler.
func NewHandler(cfg Config, deps Deps) *Handler {
	return &Handler{
		products:      deps.Products,
		productWriter: deps.ProductWriter,
		carts:         deps.Carts,
		orders:        deps.Orders,
		search:        deps.Search,
		users:         deps.Users,
		tokens:        deps.Tokens,
		metrics:       deps.Metrics,
		imageBaseURL:  cfg.ImageBaseURL,
	}
}
