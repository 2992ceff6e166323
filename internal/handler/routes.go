package handler

import (
	"net/http"

	"github.com/gorilla/mux"
)

const apiPrefix = "/v1"

// Router returns the API routes. Unknown paths answer 404 and known paths
// with an unsupported method answer 405, both as JSON.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = h.serve(func(http.ResponseWriter, *http.Request) error { return errNotFound })
	r.MethodNotAllowedHandler = h.serve(func(http.ResponseWriter, *http.Request) error { return errMethodNotAllowed })

	route := func(path string, fn apiFunc, methods ...string) {
		r.Handle(apiPrefix+path, h.serve(fn)).Methods(methods...)
	}

	// Accounts.
	route("/users/", h.admin(h.listUsers), http.MethodGet)
	route("/users/", h.createUser, http.MethodPost)
	route("/users/{id:[0-9]+}/", h.authenticated(h.getUser), http.MethodGet)
	route("/users/{id:[0-9]+}/", h.owner("id", h.updateUser(false)), http.MethodPut)
	route("/users/{id:[0-9]+}/", h.owner("id", h.updateUser(true)), http.MethodPatch)
	route("/users/{id:[0-9]+}/", h.owner("id", h.deleteUser), http.MethodDelete)

	// Cart.
	route("/users/{user_pk:[0-9]+}/cart/", h.owner("user_pk", h.getCart), http.MethodGet)
	route("/users/{user_pk:[0-9]+}/cart/items/", h.owner("user_pk", h.listCartItems), http.MethodGet)
	route("/users/{user_pk:[0-9]+}/cart/items/", h.owner("user_pk", h.addCartItem), http.MethodPost)
	route("/users/{user_pk:[0-9]+}/cart/items/{id:[0-9]+}/", h.owner("user_pk", h.getCartItem), http.MethodGet)
	route("/users/{user_pk:[0-9]+}/cart/items/{id:[0-9]+}/", h.owner("user_pk", h.updateCartItem(false)), http.MethodPut)
	route("/users/{user_pk:[0-9]+}/cart/items/{id:[0-9]+}/", h.owner("user_pk", h.updateCartItem(true)), http.MethodPatch)
	route("/users/{user_pk:[0-9]+}/cart/items/{id:[0-9]+}/", h.owner("user_pk", h.deleteCartItem), http.MethodDelete)
	route("/users/{user_pk:[0-9]+}/cart/checkout", h.owner("user_pk", h.checkout), http.MethodPost)

	// Orders.
	route("/users/{user_pk:[0-9]+}/orders/", h.owner("user_pk", h.listOrders), http.MethodGet)
	route("/users/{user_pk:[0-9]+}/orders/", h.owner("user_pk", h.createOrder), http.MethodPost)
	route("/users/{user_pk:[0-9]+}/orders/{id:[0-9]+}/", h.owner("user_pk", h.getOrder), http.MethodGet)
	route("/users/{user_pk:[0-9]+}/orders/{id:[0-9]+}/", h.owner("user_pk", h.cancelOrder), http.MethodDelete)

	// Catalog.
	route("/products/", h.listProducts, http.MethodGet)
	route("/products/featured/", h.listFeatured, http.MethodGet)
	route("/products/new/", h.listNew, http.MethodGet)
	route("/products/{slug}/", h.getProduct, http.MethodGet)
	route("/products/{slug}/", h.admin(h.deleteProduct), http.MethodDelete)
	route("/search/", h.searchProducts, http.MethodGet)
	route("/recommendations", h.recommendations, http.MethodGet)

	// Tokens.
	route("/token/", h.obtainToken, http.MethodPost)
	route("/refresh/", h.refreshToken, http.MethodPost)

	return r
}

// apiFunc is an endpoint that reports failures as errors.
type apiFunc func(w http.ResponseWriter, r *http.Request) error

func (h *Handler) serve(fn apiFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.writeError(w, r, err)
		}
	})
}
