package handler

import (
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/search"
	"github.com/xenking/storefront/internal/domain/user"
	"github.com/xenking/storefront/internal/domain/validate"
)

var (
	errUnauthenticated  = errors.New("authentication credentials were not provided")
	errForbidden        = errors.New("permission denied")
	errNotFound         = errors.New("not found")
	errMethodNotAllowed = errors.New("method not allowed")
)

const notFoundDetail = "Not found."

// apiError is the JSON error body.
type apiError struct {
	Status int
	Detail string
	Field  string
}

func badRequest(detail string) apiError {
	return apiError{Status: http.StatusBadRequest, Detail: detail}
}

// classify maps a domain error to its response. The second result is false
// for errors that are not part of the API contract.
func classify(err error) (apiError, bool) {
	var (
		vErr       *validate.Error
		missingErr *order.ItemDoesntExistError
		dupErr     *order.ItemAlreadyExistsError
		qtyErr     *order.InvalidQuantityError
		reqErr     *search.BadRequestError
	)
	switch {
	case errors.As(err, &vErr):
		return apiError{Status: http.StatusBadRequest, Detail: vErr.Message, Field: vErr.Field}, true
	case errors.Is(err, user.ErrPasswordConfirmationMismatch):
		return badRequest("Password and confirmation do not match."), true
	case errors.Is(err, user.ErrPasswordMismatch):
		return badRequest("Passwords do not match."), true
	case errors.Is(err, user.ErrEmailTaken):
		return apiError{Status: http.StatusBadRequest, Detail: "User with this email already exists.", Field: "email"}, true
	case errors.Is(err, cart.ErrInvalidQuantity):
		return apiError{
			Status: http.StatusBadRequest,
			Detail: fmt.Sprintf("Quantity must be between 1 and %d.", product.MaxQuantity),
			Field:  "quantity",
		}, true
	case errors.As(err, &qtyErr):
		return apiError{
			Status: http.StatusBadRequest,
			Detail: fmt.Sprintf("Quantity must be between 1 and %d for product: %d", product.MaxQuantity, qtyErr.ProductID),
			Field:  "quantity",
		}, true
	case errors.Is(err, cart.ErrProductNotFound):
		return apiError{Status: http.StatusBadRequest, Detail: "Product does not exist.", Field: "product_id"}, true
	case errors.As(err, &missingErr):
		return badRequest(fmt.Sprintf("Entered in an item id that doesn't correspond with a product: %d", missingErr.ProductID)), true
	case errors.As(err, &dupErr):
		return badRequest(fmt.Sprintf("Entered in an item for a product multiple times: %d", dupErr.ProductID)), true
	case errors.Is(err, order.ErrNoItems):
		return badRequest("Order must contain at least one item."), true
	case errors.Is(err, order.ErrEmptyCart):
		return badRequest("Cart cannot be empty."), true
	case errors.Is(err, order.ErrTotalOutOfRange):
		return badRequest("Order total exceeds the allowed maximum."), true
	case errors.As(err, &reqErr):
		return badRequest(reqErr.Reason), true
	case errors.Is(err, product.ErrInUse):
		return apiError{Status: http.StatusConflict, Detail: "Product is referenced by an order."}, true
	case errors.Is(err, user.ErrInvalidCredentials):
		return apiError{Status: http.StatusUnauthorized, Detail: "No active account found with the given credentials"}, true
	case errors.Is(err, auth.ErrInvalidToken):
		return apiError{Status: http.StatusUnauthorized, Detail: "Given token not valid for any token type"}, true
	case errors.Is(err, errUnauthenticated):
		return apiError{Status: http.StatusUnauthorized, Detail: "Authentication credentials were not provided."}, true
	case errors.Is(err, errForbidden):
		return apiError{Status: http.StatusForbidden, Detail: "You do not have permission to perform this action."}, true
	case errors.Is(err, errMethodNotAllowed):
		return apiError{Status: http.StatusMethodNotAllowed, Detail: "Method not allowed."}, true
	case errors.Is(err, errNotFound),
		errors.Is(err, product.ErrNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, order.ErrUserNotFound),
		errors.Is(err, user.ErrNotFound),
		errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrItemNotFound):
		return apiError{Status: http.StatusNotFound, Detail: notFoundDetail}, true
	default:
		return apiError{}, false
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp, ok := classify(err)
	if !ok {
		zctx.From(r.Context()).Error("Request failed", zap.Error(err))
		resp = apiError{Status: http.StatusInternalServerError, Detail: "internal error"}
	}
	if resp.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	}
	writeJSON(w, resp.Status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("detail")
		e.Str(resp.Detail)
		if resp.Field != "" {
			e.FieldStart("field")
			e.Str(resp.Field)
		}
		e.ObjEnd()
	})
}
